package models

// Role identifies the class of actor taking part in a review.
type Role string

const (
	RoleApplicant   Role = "applicant"
	RoleMentor      Role = "mentor"
	RoleDRDReviewer Role = "drd_reviewer"
	RoleDean        Role = "dean"
)

func (r Role) Valid() bool {
	switch r {
	case RoleApplicant, RoleMentor, RoleDRDReviewer, RoleDean:
		return true
	}
	return false
}
