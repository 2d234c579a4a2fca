package listeners

import (
	"fmt"

	"school-system/internal/authz"
	"school-system/internal/entities"
	"school-system/internal/events"
)

// Message - текст уведомления для одного события.
type Message struct {
	Type      string
	Title     string
	Text      string
	Icon      string
	ActionURL *string
}

type entityLabel struct {
	name    string
	icon    string
	path    string
	created string
}

var labels = map[authz.Entity]entityLabel{
	authz.EntitySchool:     {name: "School", icon: "school", path: "/schools", created: "New School Registered"},
	authz.EntityBranch:     {name: "Branch", icon: "building", path: "/branches", created: "New Branch Created"},
	authz.EntityDepartment: {name: "Department", icon: "users", path: "/departments", created: "New Department Created"},
}

// BuildMessage возвращает false, если событие не требует уведомления.
func BuildMessage(e events.EntityEvent) (Message, bool) {
	label, ok := labels[e.Entity]
	if !ok {
		return Message{}, false
	}
	subj := e.After
	url := fmt.Sprintf("%s/%d", label.path, subj.ID)

	switch e.Kind {
	case events.Created:
		return Message{
			Type:      entities.NotificationSuccess,
			Title:     label.created,
			Text:      createdText(e.Entity, subj),
			Icon:      label.icon,
			ActionURL: &url,
		}, true
	case events.Updated:
		if !e.NameOrCodeChanged() {
			return Message{}, false
		}
		return Message{
			Type:      entities.NotificationInfo,
			Title:     label.name + " Information Updated",
			Text:      fmt.Sprintf("%s '%s' information has been updated.", label.name, subj.Name),
			Icon:      label.icon,
			ActionURL: &url,
		}, true
	case events.Deleted:
		from := "the system"
		if e.Entity != authz.EntitySchool {
			from = subj.Parent
		}
		return Message{
			Type:  entities.NotificationWarning,
			Title: label.name + " Deleted",
			Text:  fmt.Sprintf("%s '%s' has been deleted from %s.", label.name, subj.Name, from),
			Icon:  label.icon,
		}, true
	case events.Restored:
		return Message{
			Type:      entities.NotificationInfo,
			Title:     label.name + " Restored",
			Text:      fmt.Sprintf("%s '%s' has been restored.", label.name, subj.Name),
			Icon:      label.icon,
			ActionURL: &url,
		}, true
	case events.ForceDeleted:
		return Message{
			Type:  entities.NotificationError,
			Title: label.name + " Permanently Deleted",
			Text:  fmt.Sprintf("%s '%s' has been permanently deleted from the system.", label.name, subj.Name),
			Icon:  label.icon,
		}, true
	}
	return Message{}, false
}

func createdText(entity authz.Entity, subj events.Subject) string {
	switch entity {
	case authz.EntityBranch:
		return fmt.Sprintf("A new branch '%s' has been created for %s.", subj.Name, subj.Parent)
	case authz.EntityDepartment:
		return fmt.Sprintf("A new department '%s' has been created in %s.", subj.Name, subj.Parent)
	default:
		return fmt.Sprintf("A new school '%s' has been registered in the system.", subj.Name)
	}
}
