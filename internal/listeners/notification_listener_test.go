package listeners

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"school-system/internal/authz"
	"school-system/internal/entities"
	"school-system/internal/events"
	"school-system/internal/repositories"
	"school-system/internal/services"
	"school-system/internal/testutil"
	"school-system/pkg/eventbus"
	"school-system/pkg/mailer"
	"school-system/pkg/validation"
)

type recordingSender struct {
	mu     sync.Mutex
	users  []uint64
	events []string
}

func (s *recordingSender) PushNotification(event string, n *entities.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, n.UserID)
	s.events = append(s.events, event)
	return nil
}

type recordingMailer struct {
	messages []mailer.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.messages = append(m.messages, msg)
	return nil
}

type listenerFixture struct {
	store  *testutil.Store
	bus    *eventbus.Bus
	ws     *recordingSender
	mailer *recordingMailer
}

func newListenerFixture(t *testing.T) *listenerFixture {
	t.Helper()
	logger := zap.NewNop()
	store := testutil.NewStore()
	settings := services.NewSettingService(testutil.SettingRepo{S: store}, repositories.NewMemoryCacheRepository(), validation.New(), time.Minute, logger)
	f := &listenerFixture{store: store, bus: eventbus.New(logger), ws: &recordingSender{}, mailer: &recordingMailer{}}
	NewNotificationListener(testutil.UserRepo{S: store}, testutil.NotificationRepo{S: store}, settings, f.ws, f.mailer, logger).Register(f.bus)
	return f
}

func TestBuildMessage(t *testing.T) {
	school := events.Subject{ID: 3, Name: "Lincoln"}
	branch := events.Subject{ID: 4, Name: "North", Parent: "Lincoln"}
	dept := events.Subject{ID: 5, Name: "Math", Parent: "North"}

	cases := []struct {
		event     events.EntityEvent
		typ       string
		title     string
		text      string
		icon      string
		actionURL string
	}{
		{events.NewEntityEvent(events.Created, authz.EntitySchool, 1, school), entities.NotificationSuccess,
			"New School Registered", "A new school 'Lincoln' has been registered in the system.", "school", "/schools/3"},
		{events.NewEntityEvent(events.Created, authz.EntityBranch, 1, branch), entities.NotificationSuccess,
			"New Branch Created", "A new branch 'North' has been created for Lincoln.", "building", "/branches/4"},
		{events.NewEntityEvent(events.Created, authz.EntityDepartment, 1, dept), entities.NotificationSuccess,
			"New Department Created", "A new department 'Math' has been created in North.", "users", "/departments/5"},
		{events.NewEntityEvent(events.Deleted, authz.EntitySchool, 1, school), entities.NotificationWarning,
			"School Deleted", "School 'Lincoln' has been deleted from the system.", "school", ""},
		{events.NewEntityEvent(events.Deleted, authz.EntityBranch, 1, branch), entities.NotificationWarning,
			"Branch Deleted", "Branch 'North' has been deleted from Lincoln.", "building", ""},
		{events.NewEntityEvent(events.Restored, authz.EntityDepartment, 1, dept), entities.NotificationInfo,
			"Department Restored", "Department 'Math' has been restored.", "users", "/departments/5"},
		{events.NewEntityEvent(events.ForceDeleted, authz.EntityBranch, 1, branch), entities.NotificationError,
			"Branch Permanently Deleted", "Branch 'North' has been permanently deleted from the system.", "building", ""},
		{events.NewUpdatedEvent(authz.EntitySchool, 1, events.Subject{ID: 3, Name: "Old"}, school), entities.NotificationInfo,
			"School Information Updated", "School 'Lincoln' information has been updated.", "school", "/schools/3"},
	}
	for _, c := range cases {
		msg, ok := BuildMessage(c.event)
		require.True(t, ok, c.event.Name())
		assert.Equal(t, c.typ, msg.Type, c.event.Name())
		assert.Equal(t, c.title, msg.Title, c.event.Name())
		assert.Equal(t, c.text, msg.Text, c.event.Name())
		assert.Equal(t, c.icon, msg.Icon, c.event.Name())
		if c.actionURL == "" {
			assert.Nil(t, msg.ActionURL, c.event.Name())
		} else {
			require.NotNil(t, msg.ActionURL, c.event.Name())
			assert.Equal(t, c.actionURL, *msg.ActionURL, c.event.Name())
		}
	}
}

func TestBuildMessage_UpdateWithoutNameOrCodeChangeIsSilent(t *testing.T) {
	subj := events.Subject{ID: 3, Name: "Lincoln", Code: "LHS"}
	_, ok := BuildMessage(events.NewUpdatedEvent(authz.EntitySchool, 1, subj, subj))
	assert.False(t, ok)
}

func TestNotificationListener_FansOutToEveryUser(t *testing.T) {
	f := newListenerFixture(t)
	ada := f.store.AddUser("Ada", "ada@school.edu", "")
	bob := f.store.AddUser("Bob", "bob@school.edu", "")

	ev := events.NewEntityEvent(events.Created, authz.EntitySchool, ada.ID, events.Subject{ID: 9, Name: "Lincoln"})
	f.bus.Publish(context.Background(), ev)

	for _, u := range []uint64{ada.ID, bob.ID} {
		got := f.store.UserNotifications(u)
		require.Len(t, got, 1)
		assert.Equal(t, "New School Registered", got[0].Title)
		assert.False(t, got[0].Read)

		var data map[string]interface{}
		require.NoError(t, json.Unmarshal(got[0].Data, &data))
		assert.Equal(t, float64(ada.ID), data["created_by"])
		assert.Equal(t, ev.EventID.String(), data["event_id"])
		assert.NotEmpty(t, data["timestamp"])
	}
	assert.ElementsMatch(t, []uint64{ada.ID, bob.ID}, f.ws.users)
	assert.Equal(t, []string{"school.created", "school.created"}, f.ws.events)
	require.Len(t, f.mailer.messages, 1)
	assert.Len(t, f.mailer.messages[0].To, 2)
}

func TestNotificationListener_DisabledBySetting(t *testing.T) {
	f := newListenerFixture(t)
	f.store.AddUser("Ada", "ada@school.edu", "")
	f.store.PutSetting("notifications_enabled", "0", entities.SettingTypeBoolean, "notifications", false)

	f.bus.Publish(context.Background(), events.NewEntityEvent(events.Deleted, authz.EntitySchool, 1, events.Subject{ID: 9, Name: "Lincoln"}))

	assert.Empty(t, f.store.Notifications)
	assert.Empty(t, f.mailer.messages)
}

func TestNotificationListener_RecipientFailureDoesNotStopOthers(t *testing.T) {
	f := newListenerFixture(t)
	ada := f.store.AddUser("Ada", "ada@school.edu", "")
	bob := f.store.AddUser("Bob", "bob@school.edu", "")
	f.store.FailNotificationsFor[ada.ID] = true

	f.bus.Publish(context.Background(), events.NewEntityEvent(events.Restored, authz.EntityBranch, 1, events.Subject{ID: 4, Name: "North"}))

	assert.Empty(t, f.store.UserNotifications(ada.ID))
	assert.Len(t, f.store.UserNotifications(bob.ID), 1)
	assert.Equal(t, []uint64{bob.ID}, f.ws.users)
}
