package keybuilder

import (
	"fmt"
)

const (
	Redis    string = "redis"
	Template string = "template"
)

func RedisTemplateKeyBuild(id string) string {
	return fmt.Sprintf("%s:%s:%s", Redis, Template, id)
}

// PushCollapseKeyBuild is stable for a given template and user, so repeated alerts replace each other on the device.
// Without a template the notification id stands in, and the push never collapses with another.
func PushCollapseKeyBuild(templateID, notificationID, userID string) string {
	kind := templateID
	if kind == "" {
		kind = notificationID
	}
	return fmt.Sprintf("%s:%s", kind, userID)
}
