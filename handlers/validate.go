package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"mini-planner/apperr"
	"mini-planner/models"
)

const maxBodyBytes = 1 << 20

var (
	userNamePattern = regexp.MustCompile(`^[A-Za-z0-9]{3,30}$`)
	hexColor        = regexp.MustCompile(`^#?([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)
	upper           = regexp.MustCompile(`[A-Z]`)
	lower           = regexp.MustCompile(`[a-z]`)
	digit           = regexp.MustCompile(`[0-9]`)
)

func missing(field, message string) error {
	return &apperr.Error{Kind: apperr.MissingField, Message: message, Fields: []string{field}}
}

func invalid(field, message string) error {
	return &apperr.Error{Kind: apperr.ValidationFailed, Message: message, Fields: []string{field}}
}

// decode reads a JSON object into dst. Unknown fields are rejected and an
// empty body decodes as {}.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return invalid(field, fmt.Sprintf("%q Is Not Allowed", field))
	default:
		return apperr.Newf(apperr.ValidationFailed, "Malformed JSON Body")
	}
}

// text trims *v in place. A nil value fails only when required; a blank one
// always fails.
func text(v *string, required bool, field, message string) error {
	if v == nil {
		if required {
			return missing(field, message)
		}
		return nil
	}
	*v = strings.TrimSpace(*v)
	if *v == "" {
		return missing(field, message)
	}
	return nil
}

// color normalizes a hex color to its #-prefixed form.
func color(v *string) error {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if !hexColor.MatchString(s) {
		return invalid("color", "Not Valid Color, Required Hexadecimal Format")
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	*v = s
	return nil
}

func userName(v *string, required bool) error {
	if err := text(v, required, "userName", "UserName Is Required"); err != nil || v == nil {
		return err
	}
	switch {
	case len(*v) < 3:
		return invalid("userName", "UserName Is Too Short It Must Be More Than 3 Chracters")
	case len(*v) > 30:
		return invalid("userName", "UserName Is Too Long It Must Be Less Than 30 Chracters")
	case !userNamePattern.MatchString(*v):
		return invalid("userName", "UserName Must Contain Only English Chracters And Numbers")
	}
	return nil
}

func email(v *string, required bool) error {
	if err := text(v, required, "email", "Email Is Required"); err != nil || v == nil {
		return err
	}
	if !validEmail(*v) {
		return invalid("email", "Email Is Not Valid")
	}
	return nil
}

// validEmail accepts a bare address whose domain has at least two labels.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

func password(v *string) error {
	if err := text(v, true, "password", "Password Is Required"); err != nil {
		return err
	}
	p := *v
	if len(p) < 8 || !upper.MatchString(p) || !lower.MatchString(p) || !digit.MatchString(p) {
		return invalid("password", "Password Must Be More than 8 Characters, And Contain 1 Uppercase, 1 Lowercase, And 1 Number")
	}
	return nil
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates, in UTC.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, invalid(field, fmt.Sprintf("%s Must Be A Date", field))
}

// pageOf reads page and perPage, defaulting to the first page of three.
func pageOf(r *http.Request) (models.Page, error) {
	page := models.Page{Page: 1, PerPage: 3}
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"page", &page.Page},
		{"perPage", &page.PerPage},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page, invalid(p.name, fmt.Sprintf("%s Must Be A Positive Integer", p.name))
		}
		*p.dst = n
	}
	return page, nil
}

// taskQuery reads the done and due date filters of a task listing.
func taskQuery(r *http.Request, ownerID string) (models.TaskQuery, error) {
	q := models.TaskQuery{OwnerID: ownerID}
	values := r.URL.Query()

	if raw := values.Get("done"); raw != "" {
		done, err := strconv.ParseBool(raw)
		if err != nil {
			return q, invalid("done", "done Must Be A Boolean")
		}
		q.Done = &done
	}
	for _, b := range []struct {
		name string
		dst  **time.Time
	}{
		{"dueDateFrom", &q.DueDateFrom},
		{"dueDateTo", &q.DueDateTo},
	} {
		raw := values.Get(b.name)
		if raw == "" {
			continue
		}
		t, err := parseDate(b.name, raw)
		if err != nil {
			return q, err
		}
		*b.dst = &t
	}
	return q, nil
}

type signupInput struct {
	UserName        *string `json:"userName"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	ConfirmPassword *string `json:"confirmPassword"`
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
}

func (in *signupInput) validate() error {
	if err := userName(in.UserName, true); err != nil {
		return err
	}
	if err := email(in.Email, true); err != nil {
		return err
	}
	if err := password(in.Password); err != nil {
		return err
	}
	if in.ConfirmPassword == nil {
		return missing("confirmPassword", "Confirm Password Is Required")
	}
	if strings.TrimSpace(*in.ConfirmPassword) != *in.Password {
		return invalid("confirmPassword", "Passwords Do Not Match")
	}
	if err := text(in.FirstName, true, "firstName", "First Name Is Required"); err != nil {
		return err
	}
	return text(in.LastName, true, "lastName", "Last Name Is Required")
}

type loginInput struct {
	EmailOrUserName *string `json:"emailOrUserName"`
	Password        *string `json:"password"`
}

func (in *loginInput) validate() error {
	if err := text(in.EmailOrUserName, true, "emailOrUserName", "Email Or UserName Is Required"); err != nil {
		return err
	}
	if in.byEmail() {
		if !validEmail(*in.EmailOrUserName) {
			return invalid("emailOrUserName", "Email Is Not Valid")
		}
	} else if !userNamePattern.MatchString(*in.EmailOrUserName) {
		return invalid("emailOrUserName", "UserName Is Not Valid")
	}
	return text(in.Password, true, "password", "Password Is Required")
}

func (in *loginInput) byEmail() bool {
	return strings.Contains(*in.EmailOrUserName, "@")
}

type userInput struct {
	UserName  *string `json:"userName"`
	Email     *string `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

func (in *userInput) patch() (models.UserPatch, error) {
	if err := userName(in.UserName, false); err != nil {
		return models.UserPatch{}, err
	}
	if err := email(in.Email, false); err != nil {
		return models.UserPatch{}, err
	}
	if err := text(in.FirstName, false, "firstName", "First Name Is Required"); err != nil {
		return models.UserPatch{}, err
	}
	if err := text(in.LastName, false, "lastName", "Last Name Is Required"); err != nil {
		return models.UserPatch{}, err
	}
	return models.UserPatch{
		UserName:  in.UserName,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}, nil
}

type passwordInput struct {
	Password *string `json:"password"`
}

// headedInput is the body shared by lists and tags.
type headedInput struct {
	Heading *string `json:"heading"`
	Color   *string `json:"color"`
}

func (in *headedInput) validate(kind string, create bool) error {
	if err := text(in.Heading, create, "heading", kind+" Heading Is Required"); err != nil {
		return err
	}
	return color(in.Color)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type stickyNoteInput struct {
	Content *string `json:"content"`
	Color   *string `json:"color"`
}

func (in *stickyNoteInput) validate(create bool) error {
	if err := text(in.Content, create, "content", "Sticky Note Content Is Required"); err != nil {
		return err
	}
	return color(in.Color)
}

type taskInput struct {
	Heading     *string           `json:"heading"`
	Description *string           `json:"description"`
	DueDate     *string           `json:"dueDate"`
	ListID      *string           `json:"listID"`
	TagID       *string           `json:"tagID"`
	Done        *bool             `json:"done"`
	SubTasks    *[]models.SubTask `json:"subTasks"`
}

func (in *taskInput) patch(create bool) (models.TaskPatch, error) {
	var p models.TaskPatch
	if err := text(in.Heading, create, "heading", "Task Heading Is Required"); err != nil {
		return p, err
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		p.Description = &d
	}
	if in.DueDate != nil {
		due, err := parseDate("dueDate", *in.DueDate)
		if err != nil {
			return p, err
		}
		p.DueDate = &due
	}
	for _, ref := range []*string{in.ListID, in.TagID} {
		if ref != nil {
			*ref = strings.TrimSpace(*ref)
		}
	}
	if in.SubTasks != nil {
		subs := make([]models.SubTask, len(*in.SubTasks))
		for i, s := range *in.SubTasks {
			s.Heading = strings.TrimSpace(s.Heading)
			if s.Heading == "" {
				return p, missing("subTasks", "Sub Task Heading Is Required")
			}
			subs[i] = s
		}
		p.SubTasks = &subs
	}
	p.Heading = in.Heading
	p.ListID = in.ListID
	p.TagID = in.TagID
	p.Done = in.Done
	return p, nil
}

func (in *taskInput) task(ownerID string) (*models.Task, error) {
	p, err := in.patch(true)
	if err != nil {
		return nil, err
	}
	t := &models.Task{
		UserID:      ownerID,
		Heading:     *p.Heading,
		Description: deref(p.Description),
		DueDate:     p.DueDate,
		ListID:      p.ListID,
		TagID:       p.TagID,
	}
	if p.Done != nil {
		t.Done = *p.Done
	}
	if p.SubTasks != nil {
		t.SubTasks = *p.SubTasks
	}
	return t, nil
}
