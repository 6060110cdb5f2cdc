package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/aulabook/seminar-reservation/internal/model"
	"github.com/aulabook/seminar-reservation/internal/repository"
	"github.com/aulabook/seminar-reservation/internal/schedule"
)

type MockShowtimeStore struct {
	mock.Mock
}

func (m *MockShowtimeStore) CreateBatch(ctx context.Context, roomID, seminarID uint64, starts []time.Time, released bool) ([]uint64, error) {
	args := m.Called(ctx, roomID, seminarID, starts, released)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint64), args.Error(1)
}

func (m *MockShowtimeStore) Update(ctx context.Context, id uint64, u repository.ShowtimeUpdate) (*model.Showtime, error) {
	args := m.Called(ctx, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Showtime), args.Error(1)
}

func (m *MockShowtimeStore) SetReleased(ctx context.Context, ids []uint64, released bool) (int64, error) {
	args := m.Called(ctx, ids, released)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockShowtimeStore) Delete(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockShowtimeStore) DeleteMany(ctx context.Context, ids []uint64) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockShowtimeStore) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockShowtimeStore) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(int64), args.Error(1)
}

type MockSeminarLookup struct {
	mock.Mock
}

func (m *MockSeminarLookup) Get(ctx context.Context, id uint64) (*model.Seminar, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Seminar), args.Error(1)
}

type MockRoomLookup struct {
	mock.Mock
}

func (m *MockRoomLookup) Get(ctx context.Context, id uint64, vis repository.Visibility) (*model.Room, error) {
	args := m.Called(ctx, id, vis)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

type ShowtimeServiceTestSuite struct {
	suite.Suite
	store    *MockShowtimeStore
	seminars *MockSeminarLookup
	rooms    *MockRoomLookup
	svc      *ShowtimeService
	ctx      context.Context
}

func (s *ShowtimeServiceTestSuite) SetupTest() {
	s.store = new(MockShowtimeStore)
	s.seminars = new(MockSeminarLookup)
	s.rooms = new(MockRoomLookup)
	s.svc = NewShowtimeService(s.store, s.seminars, s.rooms, nil)
	s.ctx = context.Background()
}

func TestShowtimeServiceSuite(t *testing.T) {
	suite.Run(t, new(ShowtimeServiceTestSuite))
}

func (s *ShowtimeServiceTestSuite) TestCreateExpandsRepeats() {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	want := []time.Time{start, start.AddDate(0, 0, 1), start.AddDate(0, 0, 2)}

	s.seminars.On("Get", s.ctx, uint64(9)).Return(&model.Seminar{ID: 9, LengthMinutes: 50}, nil)
	s.rooms.On("Get", s.ctx, uint64(2), repository.AdminView).Return(&model.Room{ID: 2}, nil)
	s.store.On("CreateBatch", s.ctx, uint64(2), uint64(9), want, true).Return([]uint64{11, 12, 13}, nil)

	got, err := s.svc.Create(s.ctx, CreateShowtimes{SeminarID: 9, RoomID: 2, Start: start, RepeatDays: 3, Released: true})
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	for i, st := range got {
		s.Equal(uint64(11+i), st.ID)
		s.Equal(want[i], st.StartsAt)
		s.True(st.IsReleased)
		s.NotNil(st.Seats)
	}
	s.store.AssertExpectations(s.T())
}

func (s *ShowtimeServiceTestSuite) TestCreateRejectsRepeatOutOfRange() {
	s.seminars.On("Get", s.ctx, uint64(9)).Return(&model.Seminar{ID: 9, LengthMinutes: 50}, nil)
	s.rooms.On("Get", s.ctx, uint64(2), repository.AdminView).Return(&model.Room{ID: 2}, nil)

	for _, n := range []int{0, 32} {
		_, err := s.svc.Create(s.ctx, CreateShowtimes{SeminarID: 9, RoomID: 2, Start: time.Now(), RepeatDays: n})
		s.ErrorIs(err, schedule.ErrInvalidRepeatCount)
	}
	s.store.AssertNotCalled(s.T(), "CreateBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *ShowtimeServiceTestSuite) TestCreateUnknownSeminarOrRoom() {
	s.seminars.On("Get", s.ctx, uint64(404)).Return(nil, repository.ErrSeminarNotFound)
	_, err := s.svc.Create(s.ctx, CreateShowtimes{SeminarID: 404, RoomID: 2, Start: time.Now(), RepeatDays: 1})
	s.ErrorIs(err, repository.ErrNotFound)

	s.seminars.On("Get", s.ctx, uint64(9)).Return(&model.Seminar{ID: 9}, nil)
	s.rooms.On("Get", s.ctx, uint64(404), repository.AdminView).Return(nil, repository.ErrRoomNotFound)
	_, err = s.svc.Create(s.ctx, CreateShowtimes{SeminarID: 9, RoomID: 404, Start: time.Now(), RepeatDays: 1})
	s.ErrorIs(err, repository.ErrRoomNotFound)
}

func (s *ShowtimeServiceTestSuite) TestCreateRequiresStart() {
	_, err := s.svc.Create(s.ctx, CreateShowtimes{SeminarID: 9, RoomID: 2, RepeatDays: 1})
	s.ErrorIs(err, ErrInvalidInput)
}

func (s *ShowtimeServiceTestSuite) TestUpdateChecksNewRoom() {
	room := uint64(8)
	s.rooms.On("Get", s.ctx, room, repository.AdminView).Return(nil, repository.ErrRoomNotFound)

	_, err := s.svc.Update(s.ctx, 5, repository.ShowtimeUpdate{RoomID: &room})
	s.ErrorIs(err, repository.ErrRoomNotFound)
	s.store.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ShowtimeServiceTestSuite) TestUpdateRelease() {
	released := true
	u := repository.ShowtimeUpdate{IsReleased: &released}
	s.store.On("Update", s.ctx, uint64(5), u).Return(&model.Showtime{ID: 5, IsReleased: true}, nil)

	got, err := s.svc.Update(s.ctx, 5, u)
	s.Require().NoError(err)
	s.True(got.IsReleased)
}

func (s *ShowtimeServiceTestSuite) TestSetReleasedNeedsIDs() {
	_, err := s.svc.SetReleased(s.ctx, nil, true)
	s.ErrorIs(err, ErrInvalidInput)

	s.store.On("SetReleased", s.ctx, []uint64{1, 2}, false).Return(int64(2), nil)
	n, err := s.svc.SetReleased(s.ctx, []uint64{1, 2}, false)
	s.Require().NoError(err)
	s.Equal(int64(2), n)
}

func (s *ShowtimeServiceTestSuite) TestDeletePastUsesUTCMidnight() {
	s.svc.now = func() time.Time {
		return time.Date(2024, 3, 5, 23, 30, 0, 0, time.FixedZone("CET", -3600))
	}
	s.store.On("DeleteBefore", s.ctx, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)).Return(int64(4), nil)

	n, err := s.svc.DeletePast(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(4), n)
}

func (s *ShowtimeServiceTestSuite) TestDeleteAndDeleteMany() {
	s.store.On("Delete", s.ctx, uint64(3)).Return(repository.ErrShowtimeNotFound)
	s.ErrorIs(s.svc.Delete(s.ctx, 3), repository.ErrNotFound)

	s.store.On("DeleteMany", s.ctx, []uint64{4, 5}).Return(int64(2), nil)
	n, err := s.svc.DeleteMany(s.ctx, []uint64{4, 5})
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	n, err = s.svc.DeleteMany(s.ctx, []uint64{})
	s.Require().NoError(err)
	s.Zero(n)
	s.store.AssertNumberOfCalls(s.T(), "DeleteMany", 1)

	s.store.On("DeleteAll", s.ctx).Return(int64(10), nil)
	n, err = s.svc.DeleteAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(10), n)
}

func (s *ShowtimeServiceTestSuite) TestNextStart() {
	got, err := NextStart(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), 50, 7, true, false)
	s.Require().NoError(err)
	s.Equal(time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC), got)

	_, err = NextStart(time.Now(), 50, 0, true, true)
	s.ErrorIs(err, schedule.ErrConflictingRounding)
}
