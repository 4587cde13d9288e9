package service

import (
	"sync"
	"testing"

	"github.com/alumnet/alumnet-backend/internal/common"
	"github.com/alumnet/alumnet-backend/internal/domain"
	"github.com/stretchr/testify/suite"
)

type MentorshipServiceSuite struct {
	suite.Suite
	f *fixture
}

func TestMentorshipServiceSuite(t *testing.T) {
	suite.Run(t, new(MentorshipServiceSuite))
}

func (s *MentorshipServiceSuite) SetupTest() {
	s.f = newFixture(s.T())
}

func (s *MentorshipServiceSuite) TestCreateRequest() {
	req, err := s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().NoError(err)
	s.Equal(domain.RequestStatusPending, req.Status)
	s.Equal(s.f.student.ID, req.StudentID)
	s.Equal(s.f.alumni.ID, req.AlumniID)
	s.Require().NotNil(req.PendingKey)
	s.Equal(domain.PendingKeyFor(s.f.student.ID, s.f.alumni.ID), *req.PendingKey)

	// the alumni got a notification row
	count, err := s.f.notificationSvc.UnreadCount(s.f.alumni)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *MentorshipServiceSuite) TestCreateRequestRejectsNonStudents() {
	_, err := s.f.mentorships.CreateRequest(s.f.alumni, s.f.validRequestInput(s.f.alumni2.ID))
	s.True(common.IsKind(err, common.KindForbidden))

	_, err = s.f.mentorships.CreateRequest(s.f.pendingUser, s.f.validRequestInput(s.f.alumni.ID))
	s.True(common.IsKind(err, common.KindForbidden))
}

func (s *MentorshipServiceSuite) TestCreateRequestValidation() {
	in := s.f.validRequestInput(s.f.alumni.ID)
	in.RequestType = "astrology"
	_, err := s.f.mentorships.CreateRequest(s.f.student, in)
	s.True(common.IsKind(err, common.KindValidation))

	in = s.f.validRequestInput(s.f.alumni.ID)
	in.Description = "  short   "
	_, err = s.f.mentorships.CreateRequest(s.f.student, in)
	s.True(common.IsKind(err, common.KindValidation))
}

func (s *MentorshipServiceSuite) TestCreateRequestUnknownAlumni() {
	_, err := s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(99999))
	s.True(common.IsKind(err, common.KindNotFound))

	// a student id is not an alumni
	_, err = s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.student2.ID))
	s.True(common.IsKind(err, common.KindNotFound))
}

func (s *MentorshipServiceSuite) TestCreateRequestBlockedPair() {
	_, err := s.f.moderation.CreateBlock(s.f.admin, &domain.CreateBlockInput{
		Scope:            domain.BlockScopePair,
		BlockedStudentID: &s.f.student.ID,
		BlockedMentorID:  &s.f.alumni.ID,
		Reason:           "harassment report upheld",
	})
	s.Require().NoError(err)

	_, err = s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().True(common.IsKind(err, common.KindBlocked))
	e, _ := common.AsError(err)
	s.Equal("harassment report upheld", e.Reason)

	// other alumni are unaffected by the pair block
	_, err = s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni2.ID))
	s.NoError(err)
}

func (s *MentorshipServiceSuite) TestCreateRequestDuplicatePending() {
	_, err := s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().NoError(err)

	_, err = s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().True(common.IsKind(err, common.KindConflict))
	e, _ := common.AsError(err)
	s.Equal(common.CodeDuplicateRequest, e.Code)

	// a different pair is fine
	_, err = s.f.mentorships.CreateRequest(s.f.student2, s.f.validRequestInput(s.f.alumni.ID))
	s.NoError(err)
}

func (s *MentorshipServiceSuite) TestCreateRequestAllowedAfterResolution() {
	req, err := s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().NoError(err)

	_, err = s.f.mentorships.Respond(s.f.alumni, req.ID, domain.RequestStatusRejected)
	s.Require().NoError(err)

	// resolution clears the pending key, so a new request may open
	req2, err := s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().NoError(err)
	s.NotEqual(req.ID, req2.ID)
}

func (s *MentorshipServiceSuite) TestConcurrentCreateRequest() {
	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
		}(i)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case common.IsKind(err, common.KindConflict):
			conflicts++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, successes)
	s.Equal(n-1, conflicts)

	var count int64
	s.Require().NoError(s.f.db.Model(&domain.MentorshipRequest{}).
		Where("student_id = ? AND alumni_id = ?", s.f.student.ID, s.f.alumni.ID).
		Count(&count).Error)
	s.Equal(int64(1), count)
}

func (s *MentorshipServiceSuite) TestRespondAccept() {
	req, err := s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().NoError(err)

	resolved, err := s.f.mentorships.Respond(s.f.alumni, req.ID, domain.RequestStatusAccepted)
	s.Require().NoError(err)
	s.Equal(domain.RequestStatusAccepted, resolved.Status)
	s.Nil(resolved.PendingKey)

	// the student got the decision notification
	count, err := s.f.notificationSvc.UnreadCount(s.f.student)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *MentorshipServiceSuite) TestRespondRejectsBadDecision() {
	req, err := s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().NoError(err)

	_, err = s.f.mentorships.Respond(s.f.alumni, req.ID, "maybe")
	s.True(common.IsKind(err, common.KindValidation))
}

func (s *MentorshipServiceSuite) TestRespondOnlyByNamedAlumni() {
	req, err := s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().NoError(err)

	// another alumni cannot even see the request
	_, err = s.f.mentorships.Respond(s.f.alumni2, req.ID, domain.RequestStatusAccepted)
	s.True(common.IsKind(err, common.KindNotFound))
}

func (s *MentorshipServiceSuite) TestRespondNonPending() {
	req, err := s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().NoError(err)

	_, err = s.f.mentorships.Respond(s.f.alumni, req.ID, domain.RequestStatusRejected)
	s.Require().NoError(err)

	_, err = s.f.mentorships.Respond(s.f.alumni, req.ID, domain.RequestStatusAccepted)
	s.True(common.IsKind(err, common.KindInvalidTransition))
}

func (s *MentorshipServiceSuite) TestCancel() {
	req, err := s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().NoError(err)

	cancelled, err := s.f.mentorships.Cancel(s.f.student, req.ID)
	s.Require().NoError(err)
	s.Equal(domain.RequestStatusCancelled, cancelled.Status)
	s.False(cancelled.StoppedByAdmin)

	// cancelling again is an invalid transition
	_, err = s.f.mentorships.Cancel(s.f.student, req.ID)
	s.True(common.IsKind(err, common.KindInvalidTransition))
}

func (s *MentorshipServiceSuite) TestCancelOnlyByOwner() {
	req, err := s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().NoError(err)

	_, err = s.f.mentorships.Cancel(s.f.student2, req.ID)
	s.True(common.IsKind(err, common.KindNotFound))
}

func (s *MentorshipServiceSuite) TestForceStop() {
	req, err := s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().NoError(err)

	stopped, err := s.f.mentorships.AdminForceStop(s.f.admin, req.ID, "terms of service violation")
	s.Require().NoError(err)
	s.Equal(domain.RequestStatusCancelled, stopped.Status)
	s.True(stopped.StoppedByAdmin)
	s.Equal("terms of service violation", stopped.StopReason)
	s.NotNil(stopped.StoppedAt)
	s.Require().NotNil(stopped.ReviewedByAdminID)
	s.Equal(s.f.admin.ID, *stopped.ReviewedByAdminID)
	s.Nil(stopped.PendingKey)

	// both parties were notified
	for _, p := range []domain.Principal{s.f.student, s.f.alumni} {
		list, err := s.f.notificationSvc.List(p, 1, 20)
		s.Require().NoError(err)
		found := false
		for _, n := range list.Items {
			if n.Type == domain.NotificationMentorshipForceStopped {
				found = true
			}
		}
		s.True(found)
	}
}

func (s *MentorshipServiceSuite) TestForceStopBlocksExistingConversation() {
	req, err := s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().NoError(err)

	view, err := s.f.convs.GetOrCreateDirect(s.f.student, s.f.alumni.ID)
	s.Require().NoError(err)

	_, err = s.f.mentorships.AdminForceStop(s.f.admin, req.ID, "policy violation")
	s.Require().NoError(err)

	conv, err := s.f.conversations.FindByID(view.ID)
	s.Require().NoError(err)
	s.True(conv.IsBlocked)
	s.Equal(domain.BlockSourceForceStop, conv.BlockedSource)
	s.Equal("policy violation", conv.BlockedReason)
}

func (s *MentorshipServiceSuite) TestForceStopIdempotent() {
	req, err := s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().NoError(err)

	first, err := s.f.mentorships.AdminForceStop(s.f.admin, req.ID, "first reason")
	s.Require().NoError(err)

	before, err := s.f.notificationSvc.UnreadCount(s.f.student)
	s.Require().NoError(err)

	// second stop is a no-op returning the stored state
	second, err := s.f.mentorships.AdminForceStop(s.f.admin, req.ID, "second reason")
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
	s.Equal("first reason", second.StopReason)

	after, err := s.f.notificationSvc.UnreadCount(s.f.student)
	s.Require().NoError(err)
	s.Equal(before, after)
}

func (s *MentorshipServiceSuite) TestForceStopRequiresPending() {
	req, err := s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().NoError(err)
	_, err = s.f.mentorships.Respond(s.f.alumni, req.ID, domain.RequestStatusAccepted)
	s.Require().NoError(err)

	_, err = s.f.mentorships.AdminForceStop(s.f.admin, req.ID, "too late")
	s.True(common.IsKind(err, common.KindInvalidTransition))
}

func (s *MentorshipServiceSuite) TestForceStopGuards() {
	req, err := s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().NoError(err)

	_, err = s.f.mentorships.AdminForceStop(s.f.student, req.ID, "reason")
	s.True(common.IsKind(err, common.KindForbidden))

	_, err = s.f.mentorships.AdminForceStop(s.f.admin, req.ID, "   ")
	s.True(common.IsKind(err, common.KindValidation))

	_, err = s.f.mentorships.AdminForceStop(s.f.admin, 99999, "reason")
	s.True(common.IsKind(err, common.KindNotFound))
}

func (s *MentorshipServiceSuite) TestBlockIsNotRetroactive() {
	req, err := s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().NoError(err)

	_, err = s.f.moderation.CreateBlock(s.f.admin, &domain.CreateBlockInput{
		Scope:            domain.BlockScopePair,
		BlockedStudentID: &s.f.student.ID,
		BlockedMentorID:  &s.f.alumni.ID,
		Reason:           "new block",
	})
	s.Require().NoError(err)

	// the existing pending request stays pending and resolvable
	got, err := s.f.mentorships.Get(s.f.student, req.ID)
	s.Require().NoError(err)
	s.Equal(domain.RequestStatusPending, got.Status)

	resolved, err := s.f.mentorships.Respond(s.f.alumni, req.ID, domain.RequestStatusAccepted)
	s.Require().NoError(err)
	s.Equal(domain.RequestStatusAccepted, resolved.Status)
}

func (s *MentorshipServiceSuite) TestGetVisibility() {
	req, err := s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().NoError(err)

	for _, p := range []domain.Principal{s.f.student, s.f.alumni, s.f.admin} {
		_, err := s.f.mentorships.Get(p, req.ID)
		s.NoError(err)
	}

	_, err = s.f.mentorships.Get(s.f.student2, req.ID)
	s.True(common.IsKind(err, common.KindNotFound))
}

func (s *MentorshipServiceSuite) TestLists() {
	_, err := s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().NoError(err)
	_, err = s.f.mentorships.CreateRequest(s.f.student, s.f.validRequestInput(s.f.alumni2.ID))
	s.Require().NoError(err)
	_, err = s.f.mentorships.CreateRequest(s.f.student2, s.f.validRequestInput(s.f.alumni.ID))
	s.Require().NoError(err)

	sent, total, err := s.f.mentorships.ListForStudent(s.f.student, "", 1, 20)
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Len(sent, 2)

	received, total, err := s.f.mentorships.ListForAlumni(s.f.alumni, domain.RequestStatusPending, 1, 20)
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Len(received, 2)

	all, total, err := s.f.mentorships.AdminList(s.f.admin, "", 1, 20)
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Len(all, 3)

	_, _, err = s.f.mentorships.AdminList(s.f.student, "", 1, 20)
	s.True(common.IsKind(err, common.KindForbidden))
}
