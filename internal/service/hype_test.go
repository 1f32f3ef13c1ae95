package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vankino/internal/domain"
	"vankino/internal/service/mocks"
	"vankino/internal/storage/memory"
)

type HypeServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	primary   *mocks.MockHypeStore
	publisher *mocks.MockPublisher
	fallback  *memory.HypeStore

	service *HypeService
	logger  *slog.Logger
}

func (s *HypeServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.primary = mocks.NewMockHypeStore(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.fallback = memory.NewHypeStore()
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.service = NewHypeService(s.primary, s.fallback, s.publisher, s.logger)
}

func (s *HypeServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestHypeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(HypeServiceTestSuite))
}

func (s *HypeServiceTestSuite) TestIncrement_Primary() {
	ctx := context.Background()
	req := domain.HypeRequest{EventID: "  rio|rio-theatre|Jaws|Jaws|2024-03-11T03:00:00.000Z ", Title: " Jaws ", Theatre: "rio"}
	trimmed := domain.HypeRequest{EventID: "rio|rio-theatre|Jaws|Jaws|2024-03-11T03:00:00.000Z", Title: "Jaws", Theatre: "rio"}
	want := domain.HypeResult{EventID: trimmed.EventID, HypeCount: 4}

	s.primary.EXPECT().Increment(ctx, trimmed).Return(4, nil)
	s.publisher.EXPECT().PublishHype(ctx, trimmed, want, 1).Return(nil)

	result, err := s.service.Increment(ctx, req)

	s.NoError(err)
	s.Equal(want, result)
}

func (s *HypeServiceTestSuite) TestDecrement_Primary() {
	ctx := context.Background()
	req := domain.HypeRequest{EventID: "abc"}

	s.primary.EXPECT().Decrement(ctx, req).Return(0, nil)
	s.publisher.EXPECT().PublishHype(ctx, req, domain.HypeResult{EventID: "abc"}, -1).Return(nil)

	result, err := s.service.Decrement(ctx, req)

	s.NoError(err)
	s.Equal(0, result.HypeCount)
}

func (s *HypeServiceTestSuite) TestMissingEventID() {
	ctx := context.Background()

	for _, id := range []string{"", "   ", "\t\n"} {
		_, err := s.service.Increment(ctx, domain.HypeRequest{EventID: id})
		s.ErrorIs(err, domain.ErrMissingEventID)

		_, err = s.service.Decrement(ctx, domain.HypeRequest{EventID: id})
		s.ErrorIs(err, domain.ErrMissingEventID)
	}

	var appErr *domain.AppError
	s.Require().ErrorAs(domain.ErrMissingEventID, &appErr)
	s.Equal(domain.CodeValidation, appErr.Code)
}

func (s *HypeServiceTestSuite) TestFallsBackToMemoryOnStoreError() {
	ctx := context.Background()
	req := domain.HypeRequest{EventID: "abc"}

	s.primary.EXPECT().Increment(ctx, req).Return(0, errors.New("connection refused")).Times(2)
	s.publisher.EXPECT().PublishHype(ctx, req, gomock.Any(), 1).Return(nil).Times(2)

	result, err := s.service.Increment(ctx, req)
	s.NoError(err)
	s.Equal(1, result.HypeCount)

	result, err = s.service.Increment(ctx, req)
	s.NoError(err)
	s.Equal(2, result.HypeCount)

	counts, _ := s.fallback.Counts(ctx, []string{"abc"})
	s.Equal(2, counts["abc"])
}

func (s *HypeServiceTestSuite) TestMemoryOnly() {
	ctx := context.Background()
	svc := NewHypeService(nil, nil, nil, s.logger)

	result, err := svc.Decrement(ctx, domain.HypeRequest{EventID: "x"})
	s.NoError(err)
	s.Equal(0, result.HypeCount)

	_, _ = svc.Increment(ctx, domain.HypeRequest{EventID: "x"})
	_, _ = svc.Increment(ctx, domain.HypeRequest{EventID: "x"})
	result, err = svc.Decrement(ctx, domain.HypeRequest{EventID: "x"})
	s.NoError(err)
	s.Equal(1, result.HypeCount)

	counts, err := svc.Counts(ctx, []string{"x", "y"})
	s.NoError(err)
	s.Equal(map[string]int{"x": 1, "y": 0}, counts)
}

func (s *HypeServiceTestSuite) TestPublishErrorIsIgnored() {
	ctx := context.Background()
	req := domain.HypeRequest{EventID: "abc"}

	s.primary.EXPECT().Increment(ctx, req).Return(1, nil)
	s.publisher.EXPECT().PublishHype(ctx, req, gomock.Any(), 1).Return(errors.New("channel closed"))

	result, err := s.service.Increment(ctx, req)

	s.NoError(err)
	s.Equal(1, result.HypeCount)
}

func (s *HypeServiceTestSuite) TestCounts_NormalizesIDs() {
	ctx := context.Background()

	s.primary.EXPECT().Counts(ctx, []string{"a", "b", "c"}).Return(map[string]int{"a": 3}, nil)

	counts, err := s.service.Counts(ctx, []string{" a", "b", "", "a ", "  ", "c"})

	s.NoError(err)
	s.Equal(map[string]int{"a": 3, "b": 0, "c": 0}, counts)
}

func (s *HypeServiceTestSuite) TestCounts_Empty() {
	counts, err := s.service.Counts(context.Background(), []string{" ", ""})

	s.NoError(err)
	s.NotNil(counts)
	s.Empty(counts)
}

func (s *HypeServiceTestSuite) TestCounts_FallsBackToMemory() {
	ctx := context.Background()
	_, _ = s.fallback.Increment(ctx, domain.HypeRequest{EventID: "a"})

	s.primary.EXPECT().Counts(ctx, []string{"a", "b"}).Return(nil, errors.New("timeout"))

	counts, err := s.service.Counts(ctx, []string{"a", "b"})

	s.NoError(err)
	s.Equal(map[string]int{"a": 1, "b": 0}, counts)
}
