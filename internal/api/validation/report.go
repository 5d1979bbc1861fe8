package validation

import (
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation"
)

// MaxStudentInfoLength bounds the free text relayed to the LLM.
const MaxStudentInfoLength = 20000

// GenerateReportRequest mirrors the fields needed for report generation validation.
type GenerateReportRequest struct {
	StudentInfo string `json:"studentInfo"`
}

// ValidateGenerateReportRequest validates the fields of a report request.
func ValidateGenerateReportRequest(req GenerateReportRequest) []FieldError {
	req.StudentInfo = strings.TrimSpace(req.StudentInfo)

	return fieldErrors(ozzo.ValidateStruct(&req,
		ozzo.Field(&req.StudentInfo,
			ozzo.Required.Error("studentInfo is required"),
			ozzo.RuneLength(0, MaxStudentInfoLength).Error("studentInfo must be at most 20000 characters"),
		),
	))
}
