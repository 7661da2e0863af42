package push

import "fmt"

// Per-user subjects. Each user has a messages topic, a friend-requests
// topic, and a read-receipts topic carrying the partner's read
// confirmations back to the sender.
func MessagesTopic(userID int) string {
	return fmt.Sprintf("instachat.messages.%d", userID)
}

func FriendRequestsTopic(userID int) string {
	return fmt.Sprintf("instachat.friend-requests.%d", userID)
}

func ReadReceiptsTopic(userID int) string {
	return fmt.Sprintf("instachat.read-receipts.%d", userID)
}
