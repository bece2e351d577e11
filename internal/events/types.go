package events

import (
	"strconv"
	"strings"

	"conference-plugins/internal/domain/attachment"
)

// Kind identifies a hook point of the host application.
type Kind string

const (
	KindFormFields        Kind = "form.fields"
	KindFormValidated     Kind = "form.validated"
	KindAttachmentCreated Kind = "attachment.created"
	KindModelCommitted    Kind = "model.committed"
)

// ChangeKind is the kind of row change reported by ModelCommitted.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// Entity names
const (
	EntityAttachment = "attachment"
)

// Form names
const (
	FormAddAttachmentFiles = "add_attachment_files"
	FormAddAttachmentLink  = "add_attachment_link"
)

// Route is what a subscriber's Selector is matched against.
type Route struct {
	Kind   Kind
	Entity string
	Change ChangeKind
	Form   string
}

type Event interface {
	Route() Route
}

// Form is a validated submission: field name to submitted value. Fields
// contributed by plugins are stored under their own names.
type Form struct {
	Name   string
	Values map[string]string
}

// Bool interprets a checkbox-style value. Missing fields are false.
func (f Form) Bool(name string) bool {
	v, ok := f.Values[name]
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "y", "yes":
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}

// Field is an extra form field contributed by a plugin.
type Field struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Widget      string `json:"widget"`
	Default     bool   `json:"default"`
}

// FormFieldsRequested fires while a form is constructed.
type FormFieldsRequested struct {
	Form string
}

func (e FormFieldsRequested) Route() Route {
	return Route{Kind: KindFormFields, Form: e.Form}
}

// FormValidated fires after a submitted form passed validation.
type FormValidated struct {
	Form Form
}

func (e FormValidated) Route() Route {
	return Route{Kind: KindFormValidated, Form: e.Form.Name}
}

// AttachmentCreated fires for every new attachment before the surrounding
// transaction commits.
type AttachmentCreated struct {
	Attachment *attachment.Attachment
}

func (e AttachmentCreated) Route() Route {
	return Route{Kind: KindAttachmentCreated, Entity: EntityAttachment}
}

// ModelCommitted fires once the transaction that changed the entity has
// durably committed. It never fires for rolled back changes.
type ModelCommitted struct {
	Entity     string
	Change     ChangeKind
	Attachment *attachment.Attachment
}

func (e ModelCommitted) Route() Route {
	return Route{Kind: KindModelCommitted, Entity: e.Entity, Change: e.Change}
}
