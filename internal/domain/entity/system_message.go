package entity

type SystemMessageType string

const (
	SystemGroupCreated      SystemMessageType = "group_created"
	SystemGroupRenamed      SystemMessageType = "group_renamed"
	SystemGroupImageUpdated SystemMessageType = "group_image_updated"
	SystemMemberAdded       SystemMessageType = "group_member_added"
	SystemMemberRemoved     SystemMessageType = "group_member_removed"
	SystemMemberLeft        SystemMessageType = "group_member_left"
)

// SystemEvent is the payload of a system message, one variant per lifecycle
// event kind, keyed by its SystemMessageType.
type SystemEvent interface {
	SystemType() SystemMessageType
}

type GroupCreated struct {
	GroupName string `firestore:"groupName" json:"group_name"`
}

func (GroupCreated) SystemType() SystemMessageType { return SystemGroupCreated }

type GroupRenamed struct {
	NewGroupName string `firestore:"newGroupName" json:"new_group_name"`
}

func (GroupRenamed) SystemType() SystemMessageType { return SystemGroupRenamed }

type GroupImageUpdated struct {
	NewGroupImageURL string `firestore:"newGroupImageUrl" json:"new_group_image_url"`
}

func (GroupImageUpdated) SystemType() SystemMessageType { return SystemGroupImageUpdated }

type MemberAdded struct {
	NewMemberID string `firestore:"newMemberId" json:"new_member_id"`
}

func (MemberAdded) SystemType() SystemMessageType { return SystemMemberAdded }

type MemberRemoved struct {
	RemovedMemberID string `firestore:"removedMemberId" json:"removed_member_id"`
}

func (MemberRemoved) SystemType() SystemMessageType { return SystemMemberRemoved }

type MemberLeft struct {
	LeftMemberID string `firestore:"leftMemberId" json:"left_member_id"`
}

func (MemberLeft) SystemType() SystemMessageType { return SystemMemberLeft }
