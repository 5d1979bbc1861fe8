package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/reportkit/internal/api/validation"
)

func fieldsOf(errs []validation.FieldError) []string {
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	return fields
}

func TestValidateSyncRequest(t *testing.T) {
	tests := []struct {
		name       string
		req        validation.SyncRequest
		wantFields []string
	}{
		{name: "valid", req: validation.SyncRequest{Email: "a@x.com", FirstName: "Ada"}},
		{name: "missing email", req: validation.SyncRequest{FirstName: "Ada"}, wantFields: []string{"email"}},
		{name: "whitespace email", req: validation.SyncRequest{Email: "   "}, wantFields: []string{"email"}},
		{name: "single-label domain accepted", req: validation.SyncRequest{Email: "ops@localhost"}},
		{name: "no at sign accepted", req: validation.SyncRequest{Email: "user"}},
		{name: "email too long", req: validation.SyncRequest{Email: strings.Repeat("a", 321)}, wantFields: []string{"email"}},
		{
			name:       "names too long",
			req:        validation.SyncRequest{Email: "a@x.com", FirstName: strings.Repeat("a", 256), LastName: strings.Repeat("b", 256)},
			wantFields: []string{"firstName", "lastName"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validation.ValidateSyncRequest(tt.req)
			if len(tt.wantFields) == 0 {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.wantFields, fieldsOf(errs))
		})
	}
}

func TestValidateSyncRequest_Message(t *testing.T) {
	errs := validation.ValidateSyncRequest(validation.SyncRequest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "email", errs[0].Field)
	assert.Equal(t, "email is required", errs[0].Message)
}

func TestValidateSetRoleRequest(t *testing.T) {
	assert.Empty(t, validation.ValidateSetRoleRequest(validation.SetRoleRequest{Role: "admin"}))
	assert.Empty(t, validation.ValidateSetRoleRequest(validation.SetRoleRequest{Role: "user"}))

	for _, role := range []string{"", "owner", "ADMIN"} {
		errs := validation.ValidateSetRoleRequest(validation.SetRoleRequest{Role: role})
		assert.Equal(t, []string{"role"}, fieldsOf(errs), "role %q", role)
	}
}

func TestValidateGenerateReportRequest(t *testing.T) {
	assert.Empty(t, validation.ValidateGenerateReportRequest(validation.GenerateReportRequest{
		StudentInfo: "Sam, year 4, strong in reading",
	}))

	errs := validation.ValidateGenerateReportRequest(validation.GenerateReportRequest{StudentInfo: " \n "})
	assert.Equal(t, []string{"studentInfo"}, fieldsOf(errs))

	errs = validation.ValidateGenerateReportRequest(validation.GenerateReportRequest{
		StudentInfo: strings.Repeat("x", validation.MaxStudentInfoLength+1),
	})
	assert.Equal(t, []string{"studentInfo"}, fieldsOf(errs))
}
