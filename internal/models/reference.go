package models

// ReferenceType discriminates the kind of entity being tipped.
type ReferenceType string

const (
	ReferenceTypeUser    ReferenceType = "user"
	ReferenceTypeComment ReferenceType = "comment"
	ReferenceTypePost    ReferenceType = "post"
)

// TipReference is the entity a tip is attached to. The kind is fixed at
// construction; each constructor takes only the fields its kind carries.
type TipReference struct {
	Type ReferenceType
	ID   string
	// OwnerID is the Myriad user who authored the referenced entity. For a
	// user reference it equals ID.
	OwnerID string
	// PeopleID is set on posts imported from an external platform whose
	// author has not claimed a Myriad account.
	PeopleID string
}

func NewUserReference(userID string) TipReference {
	return TipReference{Type: ReferenceTypeUser, ID: userID, OwnerID: userID}
}

func NewCommentReference(commentID, authorID string) TipReference {
	return TipReference{Type: ReferenceTypeComment, ID: commentID, OwnerID: authorID}
}

func NewPostReference(postID, ownerID, peopleID string) TipReference {
	return TipReference{Type: ReferenceTypePost, ID: postID, OwnerID: ownerID, PeopleID: peopleID}
}

// Imported reports whether the reference points at content whose author is
// an unclaimed external People record.
func (r TipReference) Imported() bool {
	return r.Type == ReferenceTypePost && r.PeopleID != ""
}
