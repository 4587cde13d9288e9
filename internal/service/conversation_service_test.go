package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/alumnet/alumnet-backend/internal/common"
	"github.com/alumnet/alumnet-backend/internal/domain"
	"github.com/stretchr/testify/suite"
)

// recordingRealtime captures fan-out calls for assertions.
type recordingRealtime struct {
	mu    sync.Mutex
	calls []realtimeCall
}

type realtimeCall struct {
	participantIDs []uint64
	conversationID uint64
}

func (r *recordingRealtime) MessageCreated(participantIDs []uint64, conversationID uint64, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, realtimeCall{participantIDs: participantIDs, conversationID: conversationID})
}

type ConversationServiceSuite struct {
	suite.Suite
	f *fixture
}

func TestConversationServiceSuite(t *testing.T) {
	suite.Run(t, new(ConversationServiceSuite))
}

func (s *ConversationServiceSuite) SetupTest() {
	s.f = newFixture(s.T())
}

func (s *ConversationServiceSuite) TestGetOrCreateDirectIdempotent() {
	first, err := s.f.convs.GetOrCreateDirect(s.f.student, s.f.alumni.ID)
	s.Require().NoError(err)
	s.Equal(domain.ConversationDirect, first.Type)

	// repeated and order-swapped calls land on the same row
	again, err := s.f.convs.GetOrCreateDirect(s.f.student, s.f.alumni.ID)
	s.Require().NoError(err)
	s.Equal(first.ID, again.ID)

	swapped, err := s.f.convs.GetOrCreateDirect(s.f.alumni, s.f.student.ID)
	s.Require().NoError(err)
	s.Equal(first.ID, swapped.ID)

	var count int64
	s.Require().NoError(s.f.db.Model(&domain.Conversation{}).Count(&count).Error)
	s.Equal(int64(1), count)

	// both participant rows exist
	participants, err := s.f.conversations.Participants(first.ID)
	s.Require().NoError(err)
	s.Len(participants, 2)
}

func (s *ConversationServiceSuite) TestGetOrCreateDirectValidation() {
	_, err := s.f.convs.GetOrCreateDirect(s.f.student, s.f.student.ID)
	s.True(common.IsKind(err, common.KindValidation))

	_, err = s.f.convs.GetOrCreateDirect(s.f.student, 99999)
	s.True(common.IsKind(err, common.KindNotFound))
}

func (s *ConversationServiceSuite) TestGetOrCreateDirectBlockedPair() {
	_, err := s.f.moderation.CreateBlock(s.f.admin, &domain.CreateBlockInput{
		Scope:            domain.BlockScopePair,
		BlockedStudentID: &s.f.student.ID,
		BlockedMentorID:  &s.f.alumni.ID,
		Reason:           "upheld report",
	})
	s.Require().NoError(err)

	_, err = s.f.convs.GetOrCreateDirect(s.f.student, s.f.alumni.ID)
	s.Require().True(common.IsKind(err, common.KindBlocked))
	e, _ := common.AsError(err)
	s.Equal("upheld report", e.Reason)

	// the predicate is symmetric in who initiates
	_, err = s.f.convs.GetOrCreateDirect(s.f.alumni, s.f.student.ID)
	s.True(common.IsKind(err, common.KindBlocked))
}

func (s *ConversationServiceSuite) TestBlockIsNotRetroactiveOnConversations() {
	view, err := s.f.convs.GetOrCreateDirect(s.f.student, s.f.alumni.ID)
	s.Require().NoError(err)

	_, err = s.f.moderation.CreateBlock(s.f.admin, &domain.CreateBlockInput{
		Scope:            domain.BlockScopeStudentGlobal,
		BlockedStudentID: &s.f.student.ID,
		Reason:           "policy violation",
	})
	s.Require().NoError(err)

	// the block gates new conversations for the pair, not the existing thread
	_, err = s.f.convs.SendMessage(s.f.student, view.ID, "still allowed here")
	s.NoError(err)

	_, err = s.f.convs.GetOrCreateDirect(s.f.student, s.f.alumni2.ID)
	s.True(common.IsKind(err, common.KindBlocked))
}

func (s *ConversationServiceSuite) TestConcurrentGetOrCreateDirect() {
	const n = 8
	var wg sync.WaitGroup
	ids := make([]uint64, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// half from each side of the pair
			var view *domain.ConversationView
			if i%2 == 0 {
				view, errs[i] = s.f.convs.GetOrCreateDirect(s.f.student, s.f.alumni.ID)
			} else {
				view, errs[i] = s.f.convs.GetOrCreateDirect(s.f.alumni, s.f.student.ID)
			}
			if errs[i] == nil {
				ids[i] = view.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		s.Require().NoError(errs[i])
		s.Equal(ids[0], ids[i])
	}

	var count int64
	s.Require().NoError(s.f.db.Model(&domain.Conversation{}).Count(&count).Error)
	s.Equal(int64(1), count)
}

func (s *ConversationServiceSuite) TestSendMessageAndUnread() {
	view, err := s.f.convs.GetOrCreateDirect(s.f.student, s.f.alumni.ID)
	s.Require().NoError(err)

	msg, err := s.f.convs.SendMessage(s.f.alumni, view.ID, "  Hello!  ")
	s.Require().NoError(err)
	s.Equal("Hello!", msg.Content)
	s.Equal(s.f.alumni.ID, msg.SenderID)

	// the receiver sees one unread, the sender none
	studentView, err := s.f.convs.GetOrCreateDirect(s.f.student, s.f.alumni.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), studentView.UnreadCount)
	s.NotNil(studentView.LastMessageAt)

	alumniView, err := s.f.convs.GetOrCreateDirect(s.f.alumni, s.f.student.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), alumniView.UnreadCount)

	// reading clears the count
	s.Require().NoError(s.f.convs.MarkRead(s.f.student, view.ID))
	studentView, err = s.f.convs.GetOrCreateDirect(s.f.student, s.f.alumni.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), studentView.UnreadCount)
	s.NotNil(studentView.LastReadAt)
}

func (s *ConversationServiceSuite) TestSendMessageGuards() {
	view, err := s.f.convs.GetOrCreateDirect(s.f.student, s.f.alumni.ID)
	s.Require().NoError(err)

	_, err = s.f.convs.SendMessage(s.f.student, view.ID, "   ")
	s.True(common.IsKind(err, common.KindValidation))

	_, err = s.f.convs.SendMessage(s.f.student2, view.ID, "let me in")
	s.True(common.IsKind(err, common.KindForbidden))

	_, err = s.f.convs.SendMessage(s.f.student, 99999, "hello")
	s.True(common.IsKind(err, common.KindNotFound))
}

func (s *ConversationServiceSuite) TestSendMessageOnBlockedConversation() {
	view, err := s.f.convs.GetOrCreateDirect(s.f.student, s.f.alumni.ID)
	s.Require().NoError(err)
	_, err = s.f.convs.SendMessage(s.f.student, view.ID, "before the block")
	s.Require().NoError(err)

	_, err = s.f.convs.BlockConversation(s.f.admin, view.ID, "", "abuse report")
	s.Require().NoError(err)

	before, err := s.f.conversations.CountMessages(view.ID)
	s.Require().NoError(err)

	_, err = s.f.convs.SendMessage(s.f.student, view.ID, "after the block")
	s.Require().True(common.IsKind(err, common.KindBlocked))
	e, _ := common.AsError(err)
	s.Equal("abuse report", e.Reason)

	// the rejected message was not persisted
	after, err := s.f.conversations.CountMessages(view.ID)
	s.Require().NoError(err)
	s.Equal(before, after)

	// history stays readable
	msgs, total, err := s.f.convs.History(s.f.student, view.ID, 1, 20)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Len(msgs, 1)
}

func (s *ConversationServiceSuite) TestHistoryOrdering() {
	view, err := s.f.convs.GetOrCreateDirect(s.f.student, s.f.alumni.ID)
	s.Require().NoError(err)

	for i := 0; i < 5; i++ {
		sender := s.f.student
		if i%2 == 1 {
			sender = s.f.alumni
		}
		_, err := s.f.convs.SendMessage(sender, view.ID, fmt.Sprintf("message %d", i))
		s.Require().NoError(err)
	}

	msgs, total, err := s.f.convs.History(s.f.student, view.ID, 1, 20)
	s.Require().NoError(err)
	s.Equal(int64(5), total)
	s.Require().Len(msgs, 5)
	for i, m := range msgs {
		s.Equal(fmt.Sprintf("message %d", i), m.Content)
	}

	// non-participants cannot read history
	_, _, err = s.f.convs.History(s.f.student2, view.ID, 1, 20)
	s.True(common.IsKind(err, common.KindNotFound))
}

func (s *ConversationServiceSuite) TestBlockConversationKeepsFirstReason() {
	view, err := s.f.convs.GetOrCreateDirect(s.f.student, s.f.alumni.ID)
	s.Require().NoError(err)

	blocked, err := s.f.convs.BlockConversation(s.f.admin, view.ID, domain.BlockSourceAdminManual, "first reason")
	s.Require().NoError(err)
	s.True(blocked.IsBlocked)
	s.Equal("first reason", blocked.BlockedReason)
	s.Equal(domain.BlockSourceAdminManual, blocked.BlockedSource)

	// blocking again keeps the original latch
	again, err := s.f.convs.BlockConversation(s.f.admin, view.ID, domain.BlockSourceAdminManual, "second reason")
	s.Require().NoError(err)
	s.Equal("first reason", again.BlockedReason)
}

func (s *ConversationServiceSuite) TestBlockConversationGuards() {
	view, err := s.f.convs.GetOrCreateDirect(s.f.student, s.f.alumni.ID)
	s.Require().NoError(err)

	_, err = s.f.convs.BlockConversation(s.f.student, view.ID, "", "reason")
	s.True(common.IsKind(err, common.KindForbidden))

	_, err = s.f.convs.BlockConversation(s.f.admin, view.ID, "", "  ")
	s.True(common.IsKind(err, common.KindValidation))

	_, err = s.f.convs.BlockConversation(s.f.admin, view.ID, "vibes", "reason")
	s.True(common.IsKind(err, common.KindValidation))

	_, err = s.f.convs.BlockConversation(s.f.admin, 99999, "", "reason")
	s.True(common.IsKind(err, common.KindNotFound))
}

func (s *ConversationServiceSuite) TestSnapshot() {
	view, err := s.f.convs.GetOrCreateDirect(s.f.student, s.f.alumni.ID)
	s.Require().NoError(err)

	for i := 0; i < SnapshotSize+5; i++ {
		_, err := s.f.convs.SendMessage(s.f.student, view.ID, fmt.Sprintf("message %d", i))
		s.Require().NoError(err)
	}

	msgs, err := s.f.convs.Snapshot(s.f.admin, view.ID)
	s.Require().NoError(err)
	s.Require().Len(msgs, SnapshotSize)
	// the snapshot is the trailing window in chronological order
	s.Equal("message 5", msgs[0].Content)
	s.Equal(fmt.Sprintf("message %d", SnapshotSize+4), msgs[SnapshotSize-1].Content)

	_, err = s.f.convs.Snapshot(s.f.student, view.ID)
	s.True(common.IsKind(err, common.KindForbidden))
}

func (s *ConversationServiceSuite) TestListConversations() {
	v1, err := s.f.convs.GetOrCreateDirect(s.f.student, s.f.alumni.ID)
	s.Require().NoError(err)
	v2, err := s.f.convs.GetOrCreateDirect(s.f.student, s.f.alumni2.ID)
	s.Require().NoError(err)

	_, err = s.f.convs.SendMessage(s.f.alumni, v1.ID, "from alumni one")
	s.Require().NoError(err)
	_, err = s.f.convs.SendMessage(s.f.alumni2, v2.ID, "from alumni two")
	s.Require().NoError(err)

	summaries, err := s.f.convs.ListConversations(s.f.student)
	s.Require().NoError(err)
	s.Require().Len(summaries, 2)

	// most recently active first, with the peer resolved
	s.Equal(v2.ID, summaries[0].ID)
	s.Require().NotNil(summaries[0].Peer)
	s.Equal(s.f.alumni2.ID, summaries[0].Peer.ID)
	s.Equal(int64(1), summaries[0].UnreadCount)

	// the alumni sees only their one conversation
	summaries, err = s.f.convs.ListConversations(s.f.alumni)
	s.Require().NoError(err)
	s.Require().Len(summaries, 1)
	s.Equal(v1.ID, summaries[0].ID)
}

func (s *ConversationServiceSuite) TestSendMessageFansOut() {
	realtime := &recordingRealtime{}
	convs := NewConversationService(s.f.db, s.f.conversations, s.f.users, s.f.moderation, s.f.notificationSvc, realtime)

	view, err := convs.GetOrCreateDirect(s.f.student, s.f.alumni.ID)
	s.Require().NoError(err)

	_, err = convs.SendMessage(s.f.student, view.ID, "hello there")
	s.Require().NoError(err)

	realtime.mu.Lock()
	defer realtime.mu.Unlock()
	s.Require().Len(realtime.calls, 1)
	s.Equal(view.ID, realtime.calls[0].conversationID)
	s.ElementsMatch([]uint64{s.f.student.ID, s.f.alumni.ID}, realtime.calls[0].participantIDs)

	// the receiving side got a notification row, the sender did not
	count, err := s.f.notificationSvc.UnreadCount(s.f.alumni)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
	count, err = s.f.notificationSvc.UnreadCount(s.f.student)
	s.Require().NoError(err)
	s.Equal(int64(0), count)
}
