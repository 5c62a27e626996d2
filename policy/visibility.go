package policy

import (
	"gorm.io/gorm"

	"visiondesk/models"
)

// Visibility is expressed two ways: GORM scopes that narrow list
// queries with a WHERE clause (correct under future pagination), and
// per-instance predicates evaluated after an existence check.

// denyAll is the scope for callers with no visible rows.
func denyAll(db *gorm.DB) *gorm.DB { return db.Where("1 = 0") }

// ProjectsVisibleTo narrows a project query to the rows the caller may
// read: staff see all, clients their company's projects, developers
// the projects they have at least one task on.
func ProjectsVisibleTo(c Caller) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch c.Role {
		case models.RoleAdmin, models.RoleManager:
			return db
		case models.RoleClient:
			if c.CompanyID == nil {
				return denyAll(db)
			}
			return db.Where("projects.client_company_id = ?", *c.CompanyID)
		case models.RoleDeveloper:
			return db.Where(
				"projects.id IN (SELECT project_id FROM tasks WHERE assigned_to = ? AND deleted_at IS NULL)",
				c.ID,
			)
		default:
			return denyAll(db)
		}
	}
}

// TasksVisibleTo narrows a task query to the rows the caller may read:
// staff see all, developers their assigned tasks, clients the tasks of
// their company's projects.
func TasksVisibleTo(c Caller) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch c.Role {
		case models.RoleAdmin, models.RoleManager:
			return db
		case models.RoleDeveloper:
			return db.Where("tasks.assigned_to = ?", c.ID)
		case models.RoleClient:
			if c.CompanyID == nil {
				return denyAll(db)
			}
			return db.Where(
				"tasks.project_id IN (SELECT id FROM projects WHERE client_company_id = ? AND deleted_at IS NULL)",
				*c.CompanyID,
			)
		default:
			return denyAll(db)
		}
	}
}

// CanViewProject evaluates project visibility for one instance.
func CanViewProject(db *gorm.DB, c Caller, p *models.Project) (bool, error) {
	switch c.Role {
	case models.RoleAdmin, models.RoleManager:
		return true, nil
	case models.RoleClient:
		return c.memberOf(p.ClientCompanyID), nil
	case models.RoleDeveloper:
		return hasTaskOnProject(db, c.ID, p.ID)
	}
	return false, nil
}

// CanViewTask evaluates task visibility for one instance. The parent
// project is looked up for client callers.
func CanViewTask(db *gorm.DB, c Caller, t *models.Task) (bool, error) {
	switch c.Role {
	case models.RoleAdmin, models.RoleManager:
		return true, nil
	case models.RoleDeveloper:
		return t.AssignedTo == c.ID, nil
	case models.RoleClient:
		if c.CompanyID == nil {
			return false, nil
		}
		var project models.Project
		if err := db.Select("client_company_id").First(&project, t.ProjectID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return false, nil
			}
			return false, err
		}
		return c.memberOf(project.ClientCompanyID), nil
	}
	return false, nil
}

// CanViewDocument grants access to a project's attachment when the
// caller's company owns the project, the caller is staff, or the
// caller has a task on the project.
func CanViewDocument(db *gorm.DB, c Caller, p *models.Project) (bool, error) {
	if c.IsStaff() || c.memberOf(p.ClientCompanyID) {
		return true, nil
	}
	return hasTaskOnProject(db, c.ID, p.ID)
}

func hasTaskOnProject(db *gorm.DB, userID, projectID uint) (bool, error) {
	var count int64
	err := db.Model(&models.Task{}).
		Where("project_id = ? AND assigned_to = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}

// ---- Delete guards ----

// ProjectDeleteBlocked reports whether the project still has tasks
// referencing it, which blocks deletion with a conflict.
func ProjectDeleteBlocked(db *gorm.DB, projectID uint) (bool, error) {
	var count int64
	err := db.Model(&models.Task{}).Where("project_id = ?", projectID).Count(&count).Error
	return count > 0, err
}

// CompanyDeleteBlocked reports whether any user still references the
// company, which blocks deletion with a conflict.
func CompanyDeleteBlocked(db *gorm.DB, companyID uint) (bool, error) {
	var count int64
	err := db.Model(&models.User{}).Where("company_id = ?", companyID).Count(&count).Error
	return count > 0, err
}
