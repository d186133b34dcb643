package app

import (
	"fmt"
	"sync"

	campaignHTTP "github.com/onekeel/swarm/internal/campaign/http"
	campaignRepository "github.com/onekeel/swarm/internal/campaign/repository"
	"github.com/onekeel/swarm/internal/campaign/service"
	campaignUsecase "github.com/onekeel/swarm/internal/campaign/usecase"
)

// campaignComponents holds the campaign feature wiring: repositories, the
// delivery runner, the use case and its HTTP handler.
type campaignComponents struct {
	campaignRepo    campaignUsecase.CampaignRepository
	executionRepo   campaignUsecase.ExecutionRepository
	recipientRepo   campaignUsecase.RecipientRepository
	sender          service.Sender
	executionRunner *campaignUsecase.Runner
	campaignUseCase campaignUsecase.UseCase
	campaignHandler *campaignHTTP.CampaignHandler

	campaignRepoInit    sync.Once
	executionRepoInit   sync.Once
	recipientRepoInit   sync.Once
	senderInit          sync.Once
	executionRunnerInit sync.Once
	campaignUseCaseInit sync.Once
	campaignHandlerInit sync.Once
}

// CampaignRepository returns the campaign repository based on database driver.
func (c *Container) CampaignRepository() (campaignUsecase.CampaignRepository, error) {
	var err error
	c.campaignRepoInit.Do(func() {
		c.campaignRepo, err = c.initCampaignRepository()
		if err != nil {
			c.initErrors["campaignRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["campaignRepo"]; exists {
		return nil, storedErr
	}
	return c.campaignRepo, nil
}

// ExecutionRepository returns the execution repository based on database driver.
func (c *Container) ExecutionRepository() (campaignUsecase.ExecutionRepository, error) {
	var err error
	c.executionRepoInit.Do(func() {
		c.executionRepo, err = c.initExecutionRepository()
		if err != nil {
			c.initErrors["executionRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["executionRepo"]; exists {
		return nil, storedErr
	}
	return c.executionRepo, nil
}

// RecipientRepository returns the recipient repository based on database driver.
func (c *Container) RecipientRepository() (campaignUsecase.RecipientRepository, error) {
	var err error
	c.recipientRepoInit.Do(func() {
		c.recipientRepo, err = c.initRecipientRepository()
		if err != nil {
			c.initErrors["recipientRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["recipientRepo"]; exists {
		return nil, storedErr
	}
	return c.recipientRepo, nil
}

// Sender returns the outbound channel sender. The logging sender ships as
// the default transport stub; real providers plug in behind the same
// interface. Every sender is bounded by the configured send timeout.
func (c *Container) Sender() service.Sender {
	c.senderInit.Do(func() {
		c.sender = service.NewTimeoutSender(
			service.NewLogSender(c.Logger()),
			c.config.SendTimeout,
		)
	})
	return c.sender
}

// ExecutionRunner returns the background execution runner.
func (c *Container) ExecutionRunner() (*campaignUsecase.Runner, error) {
	var err error
	c.executionRunnerInit.Do(func() {
		c.executionRunner, err = c.initExecutionRunner()
		if err != nil {
			c.initErrors["executionRunner"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["executionRunner"]; exists {
		return nil, storedErr
	}
	return c.executionRunner, nil
}

// CampaignUseCase returns the campaign use case wrapped with metrics recording.
func (c *Container) CampaignUseCase() (campaignUsecase.UseCase, error) {
	var err error
	c.campaignUseCaseInit.Do(func() {
		c.campaignUseCase, err = c.initCampaignUseCase()
		if err != nil {
			c.initErrors["campaignUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["campaignUseCase"]; exists {
		return nil, storedErr
	}
	return c.campaignUseCase, nil
}

// CampaignHandler returns the HTTP handler for campaign operations.
func (c *Container) CampaignHandler() (*campaignHTTP.CampaignHandler, error) {
	var err error
	c.campaignHandlerInit.Do(func() {
		c.campaignHandler, err = c.initCampaignHandler()
		if err != nil {
			c.initErrors["campaignHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["campaignHandler"]; exists {
		return nil, storedErr
	}
	return c.campaignHandler, nil
}

// initCampaignRepository creates the campaign repository based on the database driver.
func (c *Container) initCampaignRepository() (campaignUsecase.CampaignRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for campaign repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return campaignRepository.NewPostgreSQLCampaignRepository(db), nil
	case "mysql":
		return campaignRepository.NewMySQLCampaignRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initExecutionRepository creates the execution repository based on the database driver.
func (c *Container) initExecutionRepository() (campaignUsecase.ExecutionRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for execution repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return campaignRepository.NewPostgreSQLExecutionRepository(db), nil
	case "mysql":
		return campaignRepository.NewMySQLExecutionRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRecipientRepository creates the recipient repository based on the database driver.
func (c *Container) initRecipientRepository() (campaignUsecase.RecipientRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for recipient repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return campaignRepository.NewPostgreSQLRecipientRepository(db), nil
	case "mysql":
		return campaignRepository.NewMySQLRecipientRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initExecutionRunner creates the runner with the hub and realtime notifier
// chain attached.
func (c *Container) initExecutionRunner() (*campaignUsecase.Runner, error) {
	campaignRepo, err := c.CampaignRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign repository for runner: %w", err)
	}
	executionRepo, err := c.ExecutionRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get execution repository for runner: %w", err)
	}
	recipientRepo, err := c.RecipientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient repository for runner: %w", err)
	}
	limiter, err := c.RateLimiter()
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limiter for runner: %w", err)
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for runner: %w", err)
	}

	runner := campaignUsecase.NewRunner(
		campaignRepo,
		executionRepo,
		recipientRepo,
		c.Sender(),
		service.NewPersonalizer(),
		limiter,
		businessMetrics,
		c.Logger(),
		campaignUsecase.RunnerOptions{
			Workers:         c.config.RunnerWorkers,
			PerChannelLimit: c.config.RateLimitPerChannel,
		},
	)

	hubNotifier, err := c.HubNotifier()
	if err != nil {
		return nil, fmt.Errorf("failed to get hub notifier for runner: %w", err)
	}
	runner.AddNotifier(hubNotifier)

	return runner, nil
}

// initCampaignUseCase creates the campaign use case with all its dependencies.
func (c *Container) initCampaignUseCase() (campaignUsecase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for campaign use case: %w", err)
	}
	campaignRepo, err := c.CampaignRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign repository for campaign use case: %w", err)
	}
	executionRepo, err := c.ExecutionRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get execution repository for campaign use case: %w", err)
	}
	recipientRepo, err := c.RecipientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient repository for campaign use case: %w", err)
	}
	runner, err := c.ExecutionRunner()
	if err != nil {
		return nil, fmt.Errorf("failed to get execution runner for campaign use case: %w", err)
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for campaign use case: %w", err)
	}

	useCase := campaignUsecase.NewCampaignUseCase(
		txManager,
		campaignRepo,
		executionRepo,
		recipientRepo,
		runner,
	)

	return campaignUsecase.NewUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initCampaignHandler creates the campaign HTTP handler.
func (c *Container) initCampaignHandler() (*campaignHTTP.CampaignHandler, error) {
	useCase, err := c.CampaignUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign use case for campaign handler: %w", err)
	}
	return campaignHTTP.NewCampaignHandler(useCase, c.Logger()), nil
}
