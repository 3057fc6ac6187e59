package schema

import (
	"sort"

	"github.com/openroad/driveadmin/internal/entities"
)

// Registry maps every EntityType to its schema. Built once at process start.
type Registry struct {
	schemas map[EntityType]*Schema
}

// NewRegistry builds the registry for the four supported entity kinds.
func NewRegistry() *Registry {
	schemas := []*Schema{
		accountsSchema(),
		instructorsSchema(),
		studentsSchema(),
		bookingsSchema(),
	}

	r := &Registry{schemas: make(map[EntityType]*Schema, len(schemas))}
	for _, s := range schemas {
		s.buildIndex()
		r.schemas[s.Type] = s
	}
	return r
}

// Get returns the schema for the given entity type.
func (r *Registry) Get(t EntityType) (*Schema, bool) {
	s, ok := r.schemas[t]
	return s, ok
}

// Parse validates a raw entity name from a request path.
func (r *Registry) Parse(raw string) (EntityType, bool) {
	t := EntityType(raw)
	_, ok := r.schemas[t]
	return t, ok
}

// Types lists all registered entity types in stable order.
func (r *Registry) Types() []EntityType {
	types := make([]EntityType, 0, len(r.schemas))
	for t := range r.schemas {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func accountsSchema() *Schema {
	return &Schema{
		Type:  EntityAccounts,
		Table: entities.Account{}.TableName(),
		Fields: []Field{
			{Name: "id", Label: "ID", Sortable: true, Filterable: true},
			{Name: "email", Label: "Email", Searchable: true, Sortable: true, Filterable: true, Editable: true},
			{Name: "full_name", Label: "Full name", Searchable: true, Sortable: true, Editable: true},
			{Name: "phone", Label: "Phone", Searchable: true, Editable: true},
			{Name: "role", Label: "Role", Sortable: true, Filterable: true},
			{Name: "status", Label: "Status", Sortable: true, Filterable: true, Editable: true},
			{Name: "created_at", Label: "Created", Sortable: true, Filterable: true},
		},
		// The owner is the original administrator created during setup.
		Protected: func(rec Record) bool {
			return rec.String("role") == string(entities.AccountRoleOwner)
		},
		DisablingStatuses: []string{string(entities.AccountStatusSuspended)},
	}
}

func instructorsSchema() *Schema {
	return &Schema{
		Type:  EntityInstructors,
		Table: entities.InstructorProfile{}.TableName(),
		Fields: []Field{
			{Name: "id", Label: "ID", Sortable: true, Filterable: true},
			{Name: "account_id", Label: "Account", Filterable: true},
			{Name: "full_name", Label: "Full name", Searchable: true, Sortable: true, Editable: true},
			{Name: "licence_number", Label: "Licence no.", Searchable: true, Sortable: true, Editable: true},
			{Name: "adi_grade", Label: "ADI grade", Sortable: true, Filterable: true, Editable: true},
			{Name: "vehicle", Label: "Vehicle", Searchable: true, Editable: true},
			{Name: "transmission", Label: "Transmission", Filterable: true, Editable: true},
			{Name: "suburb", Label: "Suburb", Searchable: true, Sortable: true, Filterable: true, Editable: true},
			{Name: "hourly_rate", Label: "Hourly rate", Sortable: true, Filterable: true, Editable: true},
			{Name: "status", Label: "Status", Sortable: true, Filterable: true, Editable: true},
			{Name: "created_at", Label: "Created", Sortable: true, Filterable: true},
		},
		DisablingStatuses: []string{string(entities.AccountStatusSuspended)},
	}
}

func studentsSchema() *Schema {
	return &Schema{
		Type:  EntityStudents,
		Table: entities.StudentProfile{}.TableName(),
		Fields: []Field{
			{Name: "id", Label: "ID", Sortable: true, Filterable: true},
			{Name: "account_id", Label: "Account", Filterable: true},
			{Name: "full_name", Label: "Full name", Searchable: true, Sortable: true, Editable: true},
			{Name: "licence_number", Label: "Licence no.", Searchable: true, Editable: true},
			{Name: "preferred_transmission", Label: "Transmission", Filterable: true, Editable: true},
			{Name: "suburb", Label: "Suburb", Searchable: true, Sortable: true, Filterable: true, Editable: true},
			{Name: "progress_level", Label: "Progress", Sortable: true, Filterable: true, Editable: true},
			{Name: "status", Label: "Status", Sortable: true, Filterable: true, Editable: true},
			{Name: "created_at", Label: "Created", Sortable: true, Filterable: true},
		},
		DisablingStatuses: []string{string(entities.AccountStatusSuspended)},
	}
}

func bookingsSchema() *Schema {
	return &Schema{
		Type:  EntityBookings,
		Table: entities.Booking{}.TableName(),
		Fields: []Field{
			{Name: "id", Label: "ID", Sortable: true, Filterable: true},
			{Name: "student_id", Label: "Student", Filterable: true},
			{Name: "instructor_id", Label: "Instructor", Filterable: true},
			{Name: "lesson_date", Label: "Lesson date", Searchable: true, Sortable: true, Filterable: true, Editable: true},
			{Name: "start_time", Label: "Start", Sortable: true, Editable: true},
			{Name: "duration_minutes", Label: "Duration", Sortable: true, Filterable: true, Editable: true},
			{Name: "lesson_type", Label: "Lesson type", Searchable: true, Filterable: true, Editable: true},
			{Name: "pickup_suburb", Label: "Pickup suburb", Searchable: true, Sortable: true, Filterable: true, Editable: true},
			{Name: "price", Label: "Price", Sortable: true, Filterable: true, Editable: true},
			{Name: "status", Label: "Status", Sortable: true, Filterable: true, Editable: true},
			{Name: "created_at", Label: "Created", Sortable: true, Filterable: true},
		},
		DisablingStatuses: []string{string(entities.BookingStatusCancelled)},
	}
}
