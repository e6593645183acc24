package reconcile

import (
	"context"
	"regexp"
	"strings"

	"github.com/aimd54/staff-directory/internal/catalog"
	"github.com/aimd54/staff-directory/internal/models"
)

// ProfileInput is what the profile screen submits. Cluster is a catalog cluster, or
// "Multiple" with Cluster1 and Cluster2 set.
type ProfileInput struct {
	EmpID     string `json:"empid"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	OtherRole string `json:"other_role"`
	Cluster   string `json:"cluster"`
	Cluster1  string `json:"cluster1"`
	Cluster2  string `json:"cluster2"`
}

type emailMatcher struct {
	re *regexp.Regexp
}

// newEmailMatcher accepts first.last@domain addresses.
func newEmailMatcher(domain string) emailMatcher {
	domain = strings.TrimPrefix(strings.TrimSpace(domain), "@")
	return emailMatcher{re: regexp.MustCompile(`(?i)^[a-z0-9]+\.[a-z0-9]+@` + regexp.QuoteMeta(domain) + `$`)}
}

func (m emailMatcher) valid(email string) bool {
	return m.re.MatchString(email)
}

// SaveProfile validates and saves the identity fields of the session user. The employee
// id is read-only: a blank id means unchanged and a different id is rejected.
func (s *Service) SaveProfile(ctx context.Context, sessionID string, in ProfileInput) (*Result, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	originalID := strings.TrimSpace(sess.User.EmpID)

	op := s.begin(ScreenProfile, originalID)
	op.enter(StateValidating)

	payload, err := s.profilePayload(sess.User, in)
	if err != nil {
		return nil, op.fail(err)
	}

	return s.save(ctx, op, sessionID, originalID, []string{originalID}, models.ProfileFields, payload)
}

func (s *Service) profilePayload(cached models.Employee, in ProfileInput) (map[string]any, error) {
	verr := newValidationError()
	empid := strings.TrimSpace(cached.EmpID)
	switch requested := strings.TrimSpace(in.EmpID); {
	case empid == "":
		verr.Add("empid", "Missing original employee ID.")
	case requested != "" && requested != empid:
		verr.Add("empid", "Employee Id cannot be changed")
	}

	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" {
		verr.Add("name", "Name is required")
	}
	if !s.emailRe.valid(email) {
		verr.Add("email", "Email format Incorrect")
	}

	role, otherRole := strings.TrimSpace(in.Role), ""
	switch {
	case role == "":
		verr.Add("role", "Role required")
	case strings.EqualFold(role, catalog.RoleOther):
		otherRole = strings.TrimSpace(in.OtherRole)
		if otherRole == "" {
			verr.Add("other_role", "Enter role")
		}
		role = otherRole
	case !s.catalog.HasRole(role) && role != cached.Role:
		verr.Add("role", "Unknown role")
	}

	var cluster, cluster2 any
	mode := strings.TrimSpace(in.Cluster)
	switch {
	case mode == "":
		verr.Add("cluster", "Cluster required")
	case strings.EqualFold(mode, catalog.ClusterMultiple):
		c1, c2 := strings.TrimSpace(in.Cluster1), strings.TrimSpace(in.Cluster2)
		switch {
		case c1 == "" || c2 == "":
			verr.Add("cluster", "Both clusters required")
		case strings.EqualFold(c1, c2):
			verr.Add("cluster", "Choose two different clusters")
		case !s.knownCluster(c1, cached) || !s.knownCluster(c2, cached):
			verr.Add("cluster", "Unknown cluster")
		default:
			cluster, cluster2 = c1, c2
		}
	case !s.knownCluster(mode, cached):
		verr.Add("cluster", "Unknown cluster")
	default:
		cluster = mode
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}

	return map[string]any{
		"name":       name,
		"empid":      empid,
		"email":      email,
		"role":       role,
		"otherRole":  otherRole,
		"cluster":    cluster,
		"cluster2":   cluster2,
		"updated_at": s.timestamp(),
	}, nil
}

// knownCluster accepts catalog clusters and whatever the user already had.
func (s *Service) knownCluster(c string, cached models.Employee) bool {
	return s.catalog.HasCluster(c) || c == cached.Cluster || c == cached.Cluster2
}
