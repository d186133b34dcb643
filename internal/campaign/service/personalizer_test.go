package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersonalizer_Render(t *testing.T) {
	personalizer := NewPersonalizer()

	tests := []struct {
		name      string
		template  string
		variables map[string]string
		expected  string
	}{
		{
			name:      "single variable",
			template:  "Hi {{first_name}}!",
			variables: map[string]string{"first_name": "Ada"},
			expected:  "Hi Ada!",
		},
		{
			name:      "multiple variables",
			template:  "{{greeting}} {{first_name}}, your code is {{code}}",
			variables: map[string]string{"greeting": "Hello", "first_name": "Ada", "code": "1234"},
			expected:  "Hello Ada, your code is 1234",
		},
		{
			name:      "missing variable stays literal",
			template:  "Hi {{first_name}}, welcome to {{company}}",
			variables: map[string]string{"first_name": "Ada"},
			expected:  "Hi Ada, welcome to {{company}}",
		},
		{
			name:      "nil variables",
			template:  "Hi {{first_name}}!",
			variables: nil,
			expected:  "Hi {{first_name}}!",
		},
		{
			name:      "whitespace inside placeholder",
			template:  "Hi {{ first_name }}!",
			variables: map[string]string{"first_name": "Ada"},
			expected:  "Hi Ada!",
		},
		{
			name:      "repeated placeholder",
			template:  "{{name}} and {{name}}",
			variables: map[string]string{"name": "Ada"},
			expected:  "Ada and Ada",
		},
		{
			name:      "no placeholders",
			template:  "plain text",
			variables: map[string]string{"first_name": "Ada"},
			expected:  "plain text",
		},
		{
			name:      "empty template",
			template:  "",
			variables: map[string]string{"first_name": "Ada"},
			expected:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, personalizer.Render(tt.template, tt.variables))
		})
	}
}
