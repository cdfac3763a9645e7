package models

type EEventLogType string

const (
	TripCreated   EEventLogType = "Trip created"
	TripUpdated   EEventLogType = "Trip updated"
	MemberInvited EEventLogType = "Member invited"
	MemberJoined  EEventLogType = "Member joined"
	MemberRemoved EEventLogType = "Member removed"
	MemberLeft    EEventLogType = "Member left"
	NoteCreated   EEventLogType = "Note created"
	NoteUpdated   EEventLogType = "Note updated"
	NoteDeleted   EEventLogType = "Note deleted"
	BillAdded     EEventLogType = "Bill added"
	BillDeleted   EEventLogType = "Bill deleted"
)
