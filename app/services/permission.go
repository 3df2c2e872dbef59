package services

import "github.com/webdiner/webdiner/app/models"

// Gate applies the role hierarchy user < admin < sysadmin. Inactive
// principals fail every check.
type Gate struct{}

// RequireAdmin allows active admins and sysadmins.
func (Gate) RequireAdmin(p models.Principal) error {
	if !p.Active {
		return denied("principal %d is inactive", p.ID)
	}
	if !p.Role.Privileged() {
		return denied("admin role required")
	}
	return nil
}

// CanCreate checks whether actor may create an account with role.
func (g Gate) CanCreate(actor models.Principal, role models.Role) error {
	if err := g.RequireAdmin(actor); err != nil {
		return err
	}
	if role.Privileged() && actor.Role != models.RoleSysAdmin {
		return denied("only a sysadmin may create %s accounts", role)
	}
	return nil
}

// CanUpdate checks an edit of target. newRole is nil when the role is not
// being changed; settingPassword reports whether the patch sets a password.
func (g Gate) CanUpdate(actor models.Principal, target models.User, newRole *models.Role, settingPassword bool) error {
	if err := g.RequireAdmin(actor); err != nil {
		return err
	}
	if actor.Role == models.RoleSysAdmin {
		return nil
	}
	if target.Role.Privileged() {
		return denied("only a sysadmin may edit %s accounts", target.Role)
	}
	if newRole != nil && newRole.Privileged() {
		return denied("only a sysadmin may assign the %s role", *newRole)
	}
	if settingPassword {
		return denied("only a sysadmin may set passwords through an account update")
	}
	return nil
}

// CanDelete checks removal of target.
func (g Gate) CanDelete(actor models.Principal, target models.User) error {
	if err := g.RequireAdmin(actor); err != nil {
		return err
	}
	if target.ID == actor.ID {
		return denied("cannot delete your own account")
	}
	if target.Role.Privileged() && actor.Role != models.RoleSysAdmin {
		return denied("only a sysadmin may delete %s accounts", target.Role)
	}
	return nil
}

// CanResetCredential allows a user to reset their own password and a
// sysadmin to reset anyone's.
func (Gate) CanResetCredential(actor models.Principal, targetID uint) error {
	if !actor.Active {
		return denied("principal %d is inactive", actor.ID)
	}
	if actor.ID == targetID || actor.Role == models.RoleSysAdmin {
		return nil
	}
	return denied("cannot reset another user's password")
}
