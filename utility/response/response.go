package response

// Data ... standard response envelope
type Data struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func New() *Data {
	return &Data{}
}

// PlainSuccess ...
func (response *Data) PlainSuccess(code string, message string) Data {
	return Data{
		Success: true,
		Code:    code,
		Message: message,
	}
}

// PlainError ...
func (response *Data) PlainError(code string, message string) Data {
	return Data{
		Success: false,
		Code:    code,
		Message: message,
	}
}
