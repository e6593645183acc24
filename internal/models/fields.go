package models

// Field names an Employee attribute that a screen may own.
type Field string

// Employee fields, named by their wire keys.
const (
	FieldEmpID            Field = "empid"
	FieldName             Field = "name"
	FieldEmail            Field = "email"
	FieldRole             Field = "role"
	FieldOtherRole        Field = "other_role"
	FieldCluster          Field = "cluster"
	FieldCluster2         Field = "cluster2"
	FieldAvailability     Field = "availability"
	FieldHoursAvailable   Field = "hours_available"
	FieldFromDate         Field = "from_date"
	FieldToDate           Field = "to_date"
	FieldCurrentProject   Field = "current_project"
	FieldCurrentSkills    Field = "current_skills"
	FieldInterests        Field = "interests"
	FieldPreviousProjects Field = "previous_projects"
	FieldUpdatedAt        Field = "updated_at"
)

// FieldSet is the set of fields a screen owns.
type FieldSet []Field

// ProfileFields are owned by the profile screen.
var ProfileFields = FieldSet{
	FieldEmpID, FieldName, FieldEmail, FieldRole, FieldOtherRole,
	FieldCluster, FieldCluster2, FieldUpdatedAt,
}

// DetailFields are owned by the availability/details screen.
var DetailFields = FieldSet{
	FieldCurrentProject, FieldAvailability, FieldHoursAvailable, FieldFromDate, FieldToDate,
	FieldCurrentSkills, FieldInterests, FieldPreviousProjects, FieldUpdatedAt,
}

// Contains reports whether f is in the set.
func (fs FieldSet) Contains(f Field) bool {
	for _, x := range fs {
		if x == f {
			return true
		}
	}
	return false
}

// Apply copies the fields in fs from src into dst and leaves every other field of dst alone.
func (fs FieldSet) Apply(dst *Employee, src Employee) {
	src = src.Clone()
	for _, f := range fs {
		switch f {
		case FieldEmpID:
			dst.EmpID = src.EmpID
		case FieldName:
			dst.Name = src.Name
		case FieldEmail:
			dst.Email = src.Email
		case FieldRole:
			dst.Role = src.Role
		case FieldOtherRole:
			dst.OtherRole = src.OtherRole
		case FieldCluster:
			dst.Cluster = src.Cluster
		case FieldCluster2:
			dst.Cluster2 = src.Cluster2
		case FieldAvailability:
			dst.Availability = src.Availability
		case FieldHoursAvailable:
			dst.HoursAvailable = src.HoursAvailable
		case FieldFromDate:
			dst.FromDate = src.FromDate
		case FieldToDate:
			dst.ToDate = src.ToDate
		case FieldCurrentProject:
			dst.CurrentProject = src.CurrentProject
		case FieldCurrentSkills:
			dst.CurrentSkills = src.CurrentSkills
		case FieldInterests:
			dst.Interests = src.Interests
		case FieldPreviousProjects:
			dst.PreviousProjects = src.PreviousProjects
		case FieldUpdatedAt:
			dst.UpdatedAt = src.UpdatedAt
		}
	}
}

// Subset returns a record holding only the fields in fs.
func (fs FieldSet) Subset(src Employee) Employee {
	var out Employee
	fs.Apply(&out, src)
	return out
}
