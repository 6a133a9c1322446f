// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole is the role claim carried by an access token.
//
// Roles gate whole route groups such as the moderation queue. Story ownership
// is not a role: the content engine checks it per story.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleModerator UserRole = "moderator"
	RoleAuthor    UserRole = "author"
	RoleReader    UserRole = "reader"
)

// roleRank orders the roles; a higher rank inherits every lower one.
var roleRank = map[UserRole]int{
	RoleReader:    1,
	RoleAuthor:    2,
	RoleModerator: 3,
	RoleAdmin:     4,
}

// Known reports whether r is one of the issued roles.
func (r UserRole) Known() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r grants everything target grants. Unknown roles grant nothing.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.Known() && roleRank[r] >= roleRank[target]
}
