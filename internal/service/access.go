package service

import (
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// ScopeFilter restricts a listing to what the caller may see. Requesters see
// their own requests; technicians see their assignments plus the unassigned
// queue; administrators see everything.
func ScopeFilter(caller *domain.User, filter repository.RequestFilter) repository.RequestFilter {
	switch caller.Role {
	case domain.RoleAdmin:
	case domain.RoleTech:
		id := caller.ID
		filter.AssignedToID = &id
		filter.IncludeUnassigned = true
	default:
		id := caller.ID
		filter.CreatedByID = &id
	}
	return filter
}

// CanView reports whether caller may read request.
func CanView(caller *domain.User, request *domain.Request) bool {
	switch caller.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleTech:
		return request.AssignedToID == nil || *request.AssignedToID == caller.ID
	default:
		return request.CreatedByID == caller.ID
	}
}

// CanEdit reports whether caller may update request.
func CanEdit(caller *domain.User, request *domain.Request) bool {
	switch caller.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleTech:
		return isAssignee(caller, request)
	default:
		return request.CreatedByID == caller.ID && !request.IsClosed()
	}
}

// CanDelete reports whether caller may delete request.
func CanDelete(caller *domain.User, request *domain.Request) bool {
	if caller.Role == domain.RoleAdmin {
		return true
	}
	return request.CreatedByID == caller.ID && !request.IsClosed()
}

// CanAssign reports whether caller may assign request to technicianID.
// Technicians may only take unassigned requests for themselves.
func CanAssign(caller *domain.User, request *domain.Request, technicianID int64) bool {
	switch caller.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleTech:
		return technicianID == caller.ID && (request.AssignedToID == nil || *request.AssignedToID == caller.ID)
	default:
		return false
	}
}

// CanClose reports whether caller may close request.
func CanClose(caller *domain.User, request *domain.Request) bool {
	switch caller.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleTech:
		return isAssignee(caller, request)
	default:
		return false
	}
}

func isAssignee(caller *domain.User, request *domain.Request) bool {
	return request.AssignedToID != nil && *request.AssignedToID == caller.ID
}
