// Package policy is the single home of VisionDesk's authorization
// rules: the static per-role write-permission table, the per-instance
// visibility predicates, and the delete guards. Every controller asks
// this package instead of re-deriving rules inline.
package policy

import (
	"visiondesk/models"
)

// Caller is the authenticated identity making a request, derived from
// a verified token and the caller's User row.
type Caller struct {
	ID        uint
	Role      string
	CompanyID *uint
}

// CallerFor builds a Caller from an authenticated user.
func CallerFor(u *models.User) Caller {
	return Caller{ID: u.ID, Role: u.Role, CompanyID: u.CompanyID}
}

// IsStaff reports whether the caller holds a manager or admin role.
func (c Caller) IsStaff() bool {
	return c.Role == models.RoleAdmin || c.Role == models.RoleManager
}

// memberOf reports whether the caller belongs to the given company.
func (c Caller) memberOf(companyID uint) bool {
	return c.CompanyID != nil && *c.CompanyID == companyID
}

// ---- Projects ----

// CanCreateProject: managers and admins only.
func CanCreateProject(c Caller) bool { return c.IsStaff() }

// CanUpdateProject: managers and admins only.
func CanUpdateProject(c Caller) bool { return c.IsStaff() }

// CanDeleteProject: managers and admins only. The zero-tasks delete
// guard is a separate check, see ProjectDeleteBlocked.
func CanDeleteProject(c Caller) bool { return c.IsStaff() }

// ---- Tasks ----

// TaskUpdateScope describes how much of a task a caller may change.
type TaskUpdateScope int

const (
	// TaskUpdateNone denies the update entirely.
	TaskUpdateNone TaskUpdateScope = iota
	// TaskUpdateProgress allows status and progress fields only
	// (the assigned developer's scope).
	TaskUpdateProgress
	// TaskUpdateFull allows every field (manager/admin scope).
	TaskUpdateFull
)

// CanCreateTask: managers and admins only.
func CanCreateTask(c Caller) bool { return c.IsStaff() }

// CanDeleteTask: managers and admins only.
func CanDeleteTask(c Caller) bool { return c.IsStaff() }

// TaskUpdate returns the caller's update scope for a task: staff get
// full access, the assigned developer may move status and progress,
// everyone else is denied.
func TaskUpdate(c Caller, t *models.Task) TaskUpdateScope {
	if c.IsStaff() {
		return TaskUpdateFull
	}
	if c.Role == models.RoleDeveloper && t.AssignedTo == c.ID {
		return TaskUpdateProgress
	}
	return TaskUpdateNone
}

// CanMutateSubTask: sub-tasks inherit the parent task's mutation rule.
func CanMutateSubTask(c Caller, parent *models.Task) bool {
	return TaskUpdate(c, parent) != TaskUpdateNone
}

// ---- Users ----

// CanCreateUser: admins only.
func CanCreateUser(c Caller) bool { return c.Role == models.RoleAdmin }

// CanUpdateUser: the user themselves, or any manager/admin.
func CanUpdateUser(c Caller, target *models.User) bool {
	return c.ID == target.ID || c.IsStaff()
}

// CanChangeRole: only managers and admins may change a user's role;
// a user can never change their own role.
func CanChangeRole(c Caller, target *models.User) bool {
	return c.IsStaff() && c.ID != target.ID
}

// CanDeleteUser: managers and admins only. Self-deletion is a
// separate guard handled as a conflict, see SelfDeletion.
func CanDeleteUser(c Caller) bool { return c.IsStaff() }

// SelfDeletion reports whether the delete targets the caller's own
// account, which is never allowed regardless of role.
func SelfDeletion(c Caller, targetID uint) bool { return c.ID == targetID }

// ---- Companies ----

// CanManageCompany: company create/update/delete is admin only.
func CanManageCompany(c Caller) bool { return c.Role == models.RoleAdmin }

// CanViewCompany: staff see every company, clients see their own.
func CanViewCompany(c Caller, companyID uint) bool {
	return c.IsStaff() || c.memberOf(companyID)
}

// ---- Ratings ----

// CanCreateProjectRating: clients only, and only for a project owned
// by their own company.
func CanCreateProjectRating(c Caller, p *models.Project) bool {
	return c.Role == models.RoleClient && c.memberOf(p.ClientCompanyID)
}

// CanCreateTaskRating: clients only, and only for a task whose project
// belongs to their own company.
func CanCreateTaskRating(c Caller, projectCompanyID uint) bool {
	return c.Role == models.RoleClient && c.memberOf(projectCompanyID)
}

// CanModifyProjectRating: the rating's owner, or any manager/admin.
func CanModifyProjectRating(c Caller, r *models.ProjectRating) bool {
	return c.ID == r.UserID || c.IsStaff()
}

// CanModifyTaskRating: the rating's owner, or any manager/admin.
func CanModifyTaskRating(c Caller, r *models.TaskRating) bool {
	return c.ID == r.UserID || c.IsStaff()
}
