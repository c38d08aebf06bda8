package health

// StatusMessage is reported by the liveness route.
const StatusMessage = "Follow-up RAG service (v2) is running"

// StatusResponse is the liveness payload.
type StatusResponse struct {
	Status string `json:"status"`
}

// Service encapsulates health-related checks.
type Service struct{}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{}
}

// Status returns the liveness payload. It has no failure mode.
func (s *Service) Status() StatusResponse {
	return StatusResponse{Status: StatusMessage}
}
