package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type createIdentityRequest struct {
	Key   string `json:"key"   validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type updateIdentityRequest struct {
	Email  string `json:"email"  validate:"omitempty,email"`
	Secret string `json:"secret"`
}

type createdResponse struct {
	Location string `json:"location"`
}
