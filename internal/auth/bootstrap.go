package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"benchbook.org/internal/ids"
)

// BootstrapAdminEmail is the default administrator account ensured at
// startup. Its password is a known default; deployments must rotate it.
const (
	BootstrapAdminEmail    = "admin@lab.com"
	bootstrapAdminPassword = "admin123"
)

// Bootstrap seeds the permission catalog, resyncs the system roles to
// their canonical definitions and ensures the default administrator
// exists. It is idempotent and runs on every startup. Custom roles are
// never touched; a store failure here is fatal to the process.
func Bootstrap(ctx context.Context, store Store, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	if err := store.Permissions().Ensure(ctx, BuiltinPermissions); err != nil {
		return fmt.Errorf("ensure permission catalog: %w", err)
	}
	for _, canonical := range SystemRoles {
		if err := ensureSystemRole(ctx, store.Roles(), canonical, log); err != nil {
			return fmt.Errorf("ensure system role %q: %w", canonical.Name, err)
		}
	}
	if err := ensureBootstrapAdmin(ctx, store.Users(), log); err != nil {
		return fmt.Errorf("ensure bootstrap admin: %w", err)
	}
	return nil
}

// ensureSystemRole creates the role if absent. An existing system role is
// overwritten with the canonical permissions, label and description so the
// built-ins cannot drift; an existing custom role shadowing a system name
// is left alone.
func ensureSystemRole(ctx context.Context, roles RoleStore, canonical Role, log *slog.Logger) error {
	existing, err := roles.Find(ctx, canonical.Name)
	if errors.Is(err, ErrNotFound) {
		now := time.Now().UTC()
		role := canonical
		role.ID = ids.New()
		role.Permissions = append([]string(nil), canonical.Permissions...)
		role.CreatedAt = now
		role.UpdatedAt = now
		if err := roles.Create(ctx, &role); err != nil {
			return err
		}
		log.Info("system role created", "role", role.Name)
		return nil
	}
	if err != nil {
		return err
	}
	if !existing.System {
		log.Warn("role shadows a system role name, leaving as is", "role", canonical.Name)
		return nil
	}
	perms := append([]string(nil), canonical.Permissions...)
	_, err = roles.Update(ctx, canonical.Name, RoleUpdate{
		DisplayName: &canonical.DisplayName,
		Description: &canonical.Description,
		Permissions: &perms,
	})
	return err
}

func ensureBootstrapAdmin(ctx context.Context, users UserStore, log *slog.Logger) error {
	_, err := users.FindByEmail(ctx, BootstrapAdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	hash, err := HashPassword(bootstrapAdminPassword)
	if err != nil {
		return err
	}
	admin := &User{
		ID:           ids.New(),
		Email:        BootstrapAdminEmail,
		PasswordHash: hash,
		Role:         RoleAdmin,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	log.Warn("default administrator created, rotate this credential", "email", BootstrapAdminEmail)
	return nil
}
