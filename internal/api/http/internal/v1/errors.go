package v1

// Errors
const (
	UnknownErrorCode    = 0
	UnknownErrorMessage = "unknown error"

	OperatorUnauthorizedCode    = 1001
	OperatorUnauthorizedMessage = "operator token is missing or invalid"

	RegionsNotLoadedCode    = 2001
	RegionsNotLoadedMessage = "region map is not loaded yet"
	RevalidateFailedCode    = 2002
	RevalidateFailedMessage = "region revalidation failed"

	ValidationErrorCode    = 6000
	ValidationErrorMessage = "validation error"
)

type ErrorCode int
type ErrorMessage string

type ErrorStruct struct {
	ErrorCode    `json:"error_code"`
	ErrorMessage `json:"error_message"`
}

type ValidationErrorStruct struct {
	ErrorCode    int               `json:"error_code"`
	ErrorMessage string            `json:"error_message"`
	Errors       []ValidationError `json:"validation_errors"`
}

type ValidationError struct {
	FieldKey     string `json:"field_key"`
	ErrorMessage string `json:"error_message"`
}

func getErrorStruct(code ErrorCode) *ErrorStruct {
	errorStruct := &ErrorStruct{
		ErrorCode:    UnknownErrorCode,
		ErrorMessage: UnknownErrorMessage,
	}

	switch code {
	case OperatorUnauthorizedCode:
		errorStruct.ErrorCode = OperatorUnauthorizedCode
		errorStruct.ErrorMessage = OperatorUnauthorizedMessage
	case RegionsNotLoadedCode:
		errorStruct.ErrorCode = RegionsNotLoadedCode
		errorStruct.ErrorMessage = RegionsNotLoadedMessage
	case RevalidateFailedCode:
		errorStruct.ErrorCode = RevalidateFailedCode
		errorStruct.ErrorMessage = RevalidateFailedMessage
	}

	return errorStruct
}
