// Package mocks holds gomock implementations of the ports interfaces.
//
// To regenerate after an interface change, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	svc := mocks.NewMockJobService(ctrl)
//	svc.EXPECT().FetchJobs(gomock.Any()).Return(nil, errBoom)
package mocks

// MockJobService: FetchJobs, SubmitURLs, SubmitText, DeleteJob, RetryJob,
// UpdateApplicationStatus, ManualUpdate, ClearHistory
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_service_mock.go JobTriage/internal/ports JobService
