package events

import "fmt"

func TopicIntent(prefix, sessionID, requestID string) string {
	return fmt.Sprintf("%s/session/%s/intent/%s", prefix, sessionID, requestID)
}

func TopicServerOnline(prefix string) string {
	return fmt.Sprintf("%s/server/online", prefix)
}
