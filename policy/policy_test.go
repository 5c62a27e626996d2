package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"visiondesk/models"
)

func uintPtr(v uint) *uint { return &v }

func TestIsStaff(t *testing.T) {
	assert.True(t, Caller{Role: models.RoleAdmin}.IsStaff())
	assert.True(t, Caller{Role: models.RoleManager}.IsStaff())
	assert.False(t, Caller{Role: models.RoleDeveloper}.IsStaff())
	assert.False(t, Caller{Role: models.RoleClient}.IsStaff())
}

func TestProjectWritePermissions(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{models.RoleAdmin, true},
		{models.RoleManager, true},
		{models.RoleDeveloper, false},
		{models.RoleClient, false},
	}
	for _, tt := range tests {
		c := Caller{ID: 1, Role: tt.role}
		assert.Equal(t, tt.want, CanCreateProject(c), "create as %s", tt.role)
		assert.Equal(t, tt.want, CanUpdateProject(c), "update as %s", tt.role)
		assert.Equal(t, tt.want, CanDeleteProject(c), "delete as %s", tt.role)
	}
}

func TestTaskUpdateScope(t *testing.T) {
	task := &models.Task{AssignedTo: 7}

	tests := []struct {
		name   string
		caller Caller
		want   TaskUpdateScope
	}{
		{"admin gets full scope", Caller{ID: 1, Role: models.RoleAdmin}, TaskUpdateFull},
		{"manager gets full scope", Caller{ID: 2, Role: models.RoleManager}, TaskUpdateFull},
		{"assigned developer gets progress scope", Caller{ID: 7, Role: models.RoleDeveloper}, TaskUpdateProgress},
		{"other developer is denied", Caller{ID: 8, Role: models.RoleDeveloper}, TaskUpdateNone},
		{"client is denied", Caller{ID: 9, Role: models.RoleClient, CompanyID: uintPtr(3)}, TaskUpdateNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TaskUpdate(tt.caller, task))
		})
	}
}

func TestCanMutateSubTask(t *testing.T) {
	task := &models.Task{AssignedTo: 7}

	assert.True(t, CanMutateSubTask(Caller{ID: 1, Role: models.RoleManager}, task))
	assert.True(t, CanMutateSubTask(Caller{ID: 7, Role: models.RoleDeveloper}, task))
	assert.False(t, CanMutateSubTask(Caller{ID: 8, Role: models.RoleDeveloper}, task))
	assert.False(t, CanMutateSubTask(Caller{ID: 9, Role: models.RoleClient}, task))
}

func TestUserPermissions(t *testing.T) {
	target := &models.User{}
	target.ID = 5

	t.Run("only admins create users", func(t *testing.T) {
		assert.True(t, CanCreateUser(Caller{Role: models.RoleAdmin}))
		assert.False(t, CanCreateUser(Caller{Role: models.RoleManager}))
		assert.False(t, CanCreateUser(Caller{Role: models.RoleDeveloper}))
	})

	t.Run("self or staff update users", func(t *testing.T) {
		assert.True(t, CanUpdateUser(Caller{ID: 5, Role: models.RoleClient}, target))
		assert.True(t, CanUpdateUser(Caller{ID: 1, Role: models.RoleManager}, target))
		assert.False(t, CanUpdateUser(Caller{ID: 6, Role: models.RoleDeveloper}, target))
	})

	t.Run("role changes exclude self", func(t *testing.T) {
		assert.True(t, CanChangeRole(Caller{ID: 1, Role: models.RoleAdmin}, target))
		assert.False(t, CanChangeRole(Caller{ID: 5, Role: models.RoleAdmin}, target))
		assert.False(t, CanChangeRole(Caller{ID: 5, Role: models.RoleClient}, target))
	})

	t.Run("self deletion flagged regardless of role", func(t *testing.T) {
		assert.True(t, SelfDeletion(Caller{ID: 5, Role: models.RoleAdmin}, 5))
		assert.False(t, SelfDeletion(Caller{ID: 1, Role: models.RoleAdmin}, 5))
	})
}

func TestCompanyPermissions(t *testing.T) {
	assert.True(t, CanManageCompany(Caller{Role: models.RoleAdmin}))
	assert.False(t, CanManageCompany(Caller{Role: models.RoleManager}))

	assert.True(t, CanViewCompany(Caller{Role: models.RoleManager}, 3))
	assert.True(t, CanViewCompany(Caller{Role: models.RoleClient, CompanyID: uintPtr(3)}, 3))
	assert.False(t, CanViewCompany(Caller{Role: models.RoleClient, CompanyID: uintPtr(4)}, 3))
	assert.False(t, CanViewCompany(Caller{Role: models.RoleClient}, 3))
}

func TestRatingPermissions(t *testing.T) {
	project := &models.Project{ClientCompanyID: 3}

	t.Run("only clients of the owning company rate", func(t *testing.T) {
		assert.True(t, CanCreateProjectRating(Caller{Role: models.RoleClient, CompanyID: uintPtr(3)}, project))
		assert.False(t, CanCreateProjectRating(Caller{Role: models.RoleClient, CompanyID: uintPtr(4)}, project))
		assert.False(t, CanCreateProjectRating(Caller{Role: models.RoleAdmin}, project))
		assert.False(t, CanCreateProjectRating(Caller{Role: models.RoleDeveloper, CompanyID: uintPtr(3)}, project))

		assert.True(t, CanCreateTaskRating(Caller{Role: models.RoleClient, CompanyID: uintPtr(3)}, 3))
		assert.False(t, CanCreateTaskRating(Caller{Role: models.RoleClient, CompanyID: uintPtr(4)}, 3))
	})

	t.Run("owner or staff modify ratings", func(t *testing.T) {
		rating := &models.ProjectRating{UserID: 9}
		assert.True(t, CanModifyProjectRating(Caller{ID: 9, Role: models.RoleClient}, rating))
		assert.True(t, CanModifyProjectRating(Caller{ID: 1, Role: models.RoleManager}, rating))
		assert.False(t, CanModifyProjectRating(Caller{ID: 8, Role: models.RoleClient}, rating))

		taskRating := &models.TaskRating{UserID: 9}
		assert.True(t, CanModifyTaskRating(Caller{ID: 9, Role: models.RoleClient}, taskRating))
		assert.False(t, CanModifyTaskRating(Caller{ID: 8, Role: models.RoleDeveloper}, taskRating))
	})
}
