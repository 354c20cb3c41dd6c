package models

import "time"

// DefaultColor is applied to lists, tags and sticky notes created without one.
const DefaultColor = "#dbdbdb"

type User struct {
	ID           string    `json:"id"`
	UserName     string    `json:"userName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserPatch carries the user columns to change; nil fields stay untouched.
// PasswordHash must already be hashed.
type UserPatch struct {
	UserName     *string `json:"userName,omitempty"`
	Email        *string `json:"email,omitempty"`
	FirstName    *string `json:"firstName,omitempty"`
	LastName     *string `json:"lastName,omitempty"`
	PasswordHash *string `json:"-"`
}

type List struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userID,omitempty"`
	Heading   string    `json:"heading"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ListPatch struct {
	Heading *string `json:"heading,omitempty"`
	Color   *string `json:"color,omitempty"`
}

func (l *List) GetID() string   { return l.ID }
func (l *List) OwnerID() string { return l.UserID }
func (l *List) StripOwner()     { l.UserID = "" }

type Tag struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userID,omitempty"`
	Heading   string    `json:"heading"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type TagPatch struct {
	Heading *string `json:"heading,omitempty"`
	Color   *string `json:"color,omitempty"`
}

func (t *Tag) GetID() string   { return t.ID }
func (t *Tag) OwnerID() string { return t.UserID }
func (t *Tag) StripOwner()     { t.UserID = "" }

type StickyNote struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userID,omitempty"`
	Content   string    `json:"content"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type StickyNotePatch struct {
	Content *string `json:"content,omitempty"`
	Color   *string `json:"color,omitempty"`
}

func (n *StickyNote) GetID() string   { return n.ID }
func (n *StickyNote) OwnerID() string { return n.UserID }
func (n *StickyNote) StripOwner()     { n.UserID = "" }

type SubTask struct {
	Heading string `json:"heading"`
	Done    bool   `json:"done"`
}

// RefSummary is the joined view of a task's list or tag.
type RefSummary struct {
	ID      string `json:"id"`
	Heading string `json:"heading"`
	Color   string `json:"color"`
}

type Task struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userID,omitempty"`
	Heading     string      `json:"heading"`
	Description string      `json:"description"`
	DueDate     *time.Time  `json:"dueDate"`
	ListID      *string     `json:"listID"`
	TagID       *string     `json:"tagID"`
	Done        bool        `json:"done"`
	SubTasks    []SubTask   `json:"subTasks"`
	List        *RefSummary `json:"list,omitempty"`
	Tag         *RefSummary `json:"tag,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (t *Task) GetID() string   { return t.ID }
func (t *Task) OwnerID() string { return t.UserID }
func (t *Task) StripOwner()     { t.UserID = "" }

// TaskPatch carries the task columns to change. An empty ListID or TagID
// clears the reference.
type TaskPatch struct {
	Heading     *string    `json:"heading,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	ListID      *string    `json:"listID,omitempty"`
	TagID       *string    `json:"tagID,omitempty"`
	Done        *bool      `json:"done,omitempty"`
	SubTasks    *[]SubTask `json:"subTasks,omitempty"`
}

// TaskQuery filters task listings. OwnerID is mandatory; every other field is
// applied only when set. Due date bounds are inclusive.
type TaskQuery struct {
	OwnerID     string
	Done        *bool
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	ListID      string
	TagID       string
}

// OwnerFilter selects the entities of one owner.
type OwnerFilter struct {
	OwnerID string
}

// Page is a 1-based pagination window.
type Page struct {
	PerPage int
	Page    int
}

func (p Page) Skip() int  { return p.PerPage * (p.Page - 1) }
func (p Page) Limit() int { return p.PerPage }
