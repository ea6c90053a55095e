package board

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// FileName is the fixed board file name inside a granted directory.
const FileName = "backlog.yaml"

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

func (s Status) Valid() bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusDone
}

// ParseStatus maps user-typed status names onto the canonical enum,
// accepting the common spellings ("in-progress", "doing", "wip").
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo", "to-do", "backlog":
		return StatusTodo, nil
	case "in_progress", "in-progress", "inprogress", "progress", "doing", "wip":
		return StatusInProgress, nil
	case "done", "complete", "completed", "finished":
		return StatusDone, nil
	default:
		return "", fmt.Errorf("unknown status: %s", strings.TrimSpace(s))
	}
}

type TaskType string

const (
	TypeTask       TaskType = "task"
	TypeFeature    TaskType = "feature"
	TypeBug        TaskType = "bug"
	TypeChore      TaskType = "chore"
	TypeEpic       TaskType = "epic"
	TypeRequest    TaskType = "request"
	TypeExperiment TaskType = "experiment"
)

func (t TaskType) Valid() bool {
	switch t {
	case TypeTask, TypeFeature, TypeBug, TypeChore, TypeEpic, TypeRequest, TypeExperiment:
		return true
	}
	return false
}

type Task struct {
	ID     string   `yaml:"id" json:"id"`
	Text   string   `yaml:"text" json:"text"`
	Status Status   `yaml:"status" json:"status"`
	Tags   []string `yaml:"tags" json:"tags"`

	// Order positions the task relative to other tasks sharing its status.
	// Values carry no meaning across status groups.
	Order int      `yaml:"order" json:"order"`
	Type  TaskType `yaml:"type,omitempty" json:"type,omitempty"`

	CreatedAt string `yaml:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt string `yaml:"updated_at,omitempty" json:"updated_at,omitempty"`
	ClosedAt  string `yaml:"closed_at,omitempty" json:"closed_at,omitempty"`
}

func (t Task) Clone() Task {
	c := t
	c.Tags = append([]string{}, t.Tags...)
	return c
}

// HasTag reports whether the task carries tag.
func (t Task) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// Timestamp renders t in the format tasks carry on disk and over the wire.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// TaskDraft is the creation payload. Status is required; everything else
// falls back to a default.
type TaskDraft struct {
	Text   string   `json:"text"`
	Status Status   `json:"status"`
	Tags   []string `json:"tags,omitempty"`
	Order  *int     `json:"order,omitempty"`
	Type   TaskType `json:"type,omitempty"`
}

// NewTask materializes a draft into a task. The id comes from the caller
// since id assignment differs per backend.
func NewTask(id string, d TaskDraft, now time.Time) Task {
	t := Task{
		ID:        id,
		Text:      d.Text,
		Status:    d.Status,
		Tags:      append([]string{}, d.Tags...),
		Type:      d.Type,
		CreatedAt: Timestamp(now),
	}
	if t.Type == "" {
		t.Type = TypeFeature
	}
	if d.Order != nil {
		t.Order = *d.Order
	}
	t.UpdatedAt = t.CreatedAt
	return t
}

// TaskPatch is a partial update; nil fields are left untouched.
type TaskPatch struct {
	Text   *string   `json:"text,omitempty"`
	Status *Status   `json:"status,omitempty"`
	Tags   *[]string `json:"tags,omitempty"`
	Order  *int      `json:"order,omitempty"`
	Type   *TaskType `json:"type,omitempty"`
}

func (p TaskPatch) Empty() bool {
	return p.Text == nil && p.Status == nil && p.Tags == nil && p.Order == nil && p.Type == nil
}

// Apply merges p into t and touches the update timestamp. Entering done
// stamps closed_at; leaving done clears it.
func (p TaskPatch) Apply(t *Task, now time.Time) {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Tags != nil {
		t.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.Order != nil {
		t.Order = *p.Order
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Status != nil && *p.Status != t.Status {
		was := t.Status
		t.Status = *p.Status
		switch {
		case t.Status == StatusDone:
			t.ClosedAt = Timestamp(now)
		case was == StatusDone:
			t.ClosedAt = ""
		}
	}
	t.UpdatedAt = Timestamp(now)
}

// Settings is the board configuration block. Unknown keys survive both the
// board file and the JSON API via Extra.
type Settings struct {
	Darkmode               bool `yaml:"darkmode"`
	RandomPort             bool `yaml:"random_port"`
	StoreImagesInSubfolder bool `yaml:"store_images_in_subfolder"`

	Extra map[string]any `yaml:",inline"`
}

func DefaultSettings() Settings {
	return Settings{}
}

func (s Settings) Clone() Settings {
	c := s
	if s.Extra != nil {
		c.Extra = make(map[string]any, len(s.Extra))
		for k, v := range s.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

func (s Settings) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(s.Extra)+3)
	for k, v := range s.Extra {
		m[k] = v
	}
	m["darkmode"] = s.Darkmode
	m["random_port"] = s.RandomPort
	m["store_images_in_subfolder"] = s.StoreImagesInSubfolder
	return json.Marshal(m)
}

func (s *Settings) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*s = Settings{}
	SettingsPatch(m).Apply(s)
	return nil
}

// SettingsPatch is a partial settings update keyed by setting name, so
// extension keys merge the same way the built-in ones do.
type SettingsPatch map[string]any

func (p SettingsPatch) Apply(s *Settings) {
	for k, v := range p {
		switch k {
		case "darkmode":
			if b, ok := v.(bool); ok {
				s.Darkmode = b
			}
		case "random_port":
			if b, ok := v.(bool); ok {
				s.RandomPort = b
			}
		case "store_images_in_subfolder":
			if b, ok := v.(bool); ok {
				s.StoreImagesInSubfolder = b
			}
		default:
			if s.Extra == nil {
				s.Extra = map[string]any{}
			}
			s.Extra[k] = v
		}
	}
}

// Board is the unit of load and save for file-based storage.
type Board struct {
	Settings Settings `yaml:"settings" json:"settings"`
	Tasks    []Task   `yaml:"tasks" json:"tasks"`
}

func (b Board) Clone() Board {
	c := Board{Settings: b.Settings.Clone(), Tasks: make([]Task, len(b.Tasks))}
	for i, t := range b.Tasks {
		c.Tasks[i] = t.Clone()
	}
	return c
}

// Find returns a pointer into b.Tasks for id, or nil.
func (b *Board) Find(id string) *Task {
	for i := range b.Tasks {
		if b.Tasks[i].ID == id {
			return &b.Tasks[i]
		}
	}
	return nil
}

// Remove deletes id from b.Tasks, reporting whether it was present.
func (b *Board) Remove(id string) bool {
	for i := range b.Tasks {
		if b.Tasks[i].ID == id {
			b.Tasks = append(b.Tasks[:i], b.Tasks[i+1:]...)
			return true
		}
	}
	return false
}

// TagUnion returns the sorted duplicate-free union of tags across tasks.
func TagUnion(tasks []Task) []string {
	seen := map[string]bool{}
	for _, t := range tasks {
		for _, tag := range t.Tags {
			seen[tag] = true
		}
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

// SortByOrder sorts tasks by order, keeping the incoming sequence for ties.
func SortByOrder(tasks []Task) {
	slices.SortStableFunc(tasks, func(a, b Task) int {
		return a.Order - b.Order
	})
}

// ByStatus groups tasks into their status columns, each sorted by order.
func ByStatus(tasks []Task) map[Status][]Task {
	cols := map[Status][]Task{}
	for _, t := range tasks {
		cols[t.Status] = append(cols[t.Status], t)
	}
	for s := range cols {
		SortByOrder(cols[s])
	}
	return cols
}
