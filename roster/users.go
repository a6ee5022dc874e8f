package roster

// User is one participant known to the session.
type User struct {
	// Name is the display name, unique among active users.
	Name string

	// NetID identifies the user's underlying network connection.
	NetID uint32

	// ObbyID is the application-layer identity, assigned at login.
	// ObbyIDUnassigned until the user joins, and again after they part.
	ObbyID uint32

	// Color is the user's 24-bit RGB color.
	Color uint32

	// Encrypted reports whether that user's own connection is encrypted.
	Encrypted bool
}

// Joined reports whether the user currently holds an application-layer
// identity.
func (u *User) Joined() bool {
	return u.ObbyID != ObbyIDUnassigned
}

// Users is the ordered, capacity-bounded user table. Insertion order is
// the order users were learned.
type Users struct {
	list []*User
}

func NewUsers() *Users {
	return &Users{list: make([]*User, 0, 16)}
}

// Add appends a user, rejecting the insert once the table is full.
func (u *Users) Add(user *User) error {
	if len(u.list) >= MaxUsers {
		return ErrRosterFull
	}

	u.list = append(u.list, user)
	return nil
}

func (u *Users) Len() int {
	return len(u.list)
}

// ByName finds a user by display name.
func (u *Users) ByName(name string) *User {
	for _, user := range u.list {
		if user.Name == name {
			return user
		}
	}

	return nil
}

// ByNetID finds a user by network connection id.
func (u *Users) ByNetID(id uint32) *User {
	for _, user := range u.list {
		if user.NetID == id {
			return user
		}
	}

	return nil
}

// ByObbyID finds a currently-joined user by application-layer id.
func (u *Users) ByObbyID(id uint32) *User {
	if id == ObbyIDUnassigned {
		return nil
	}

	for _, user := range u.list {
		if user.ObbyID == id {
			return user
		}
	}

	return nil
}

// Reset discards every record, keeping the table usable.
func (u *Users) Reset() {
	u.list = u.list[:0]
}

// Snapshot returns a read-only copy of the table in insertion order.
func (u *Users) Snapshot() []User {
	out := make([]User, len(u.list))
	for i, user := range u.list {
		out[i] = *user
	}

	return out
}
