// Package dto provides data transfer objects for the campaign HTTP layer.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/onekeel/swarm/internal/campaign/domain"
	appValidation "github.com/onekeel/swarm/internal/validation"
)

// CreateCampaignRequest represents the API request for campaign creation
type CreateCampaignRequest struct {
	Name    string `json:"name"`
	Channel string `json:"channel"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Validate validates the CreateCampaignRequest using the jellydator/validation library
func (r *CreateCampaignRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&r.Channel,
			validation.Required.Error("channel is required"),
			appValidation.Channel,
		),
		validation.Field(&r.Body,
			validation.Required.Error("body is required"),
			appValidation.NotBlank,
		),
	)
	return appValidation.WrapValidationError(err)
}

// UpdateCampaignRequest represents the API request for campaign updates.
// Zero-value fields are left unchanged.
type UpdateCampaignRequest struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Status  string `json:"status"`
}

// Validate validates the UpdateCampaignRequest
func (r *UpdateCampaignRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Length(0, 255).Error("name must be at most 255 characters"),
		),
		validation.Field(&r.Status,
			validation.In(
				string(domain.CampaignDraft),
				string(domain.CampaignActive),
				string(domain.CampaignArchived),
			).Error("status must be one of: draft, active, archived"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// RecipientRequest is one audience member of an execution trigger
type RecipientRequest struct {
	Address   string            `json:"address"`
	Variables map[string]string `json:"variables"`
}

// Validate validates the RecipientRequest. Channel-specific address checks
// happen in the use case, which knows the campaign's channel.
func (r *RecipientRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Address,
			validation.Required.Error("address is required"),
			appValidation.NotBlank,
			validation.Length(1, 320).Error("address must be at most 320 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// TriggerExecutionRequest represents the API request for triggering an execution
type TriggerExecutionRequest struct {
	Recipients []RecipientRequest `json:"recipients"`
}

// Validate validates the TriggerExecutionRequest
func (r *TriggerExecutionRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Recipients,
			validation.Required.Error("recipients is required"),
			validation.Length(1, 10000).Error("recipients must contain between 1 and 10000 entries"),
		),
	)
	if err != nil {
		return appValidation.WrapValidationError(err)
	}
	for _, recipient := range r.Recipients {
		if err := recipient.Validate(); err != nil {
			return err
		}
	}
	return nil
}
