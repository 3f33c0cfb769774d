package command

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goliatone/go-accounts/activity"
	"github.com/goliatone/go-accounts/avatar"
	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/scope"
	gocommand "github.com/goliatone/go-command"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
)

// AvatarCommandConfig wires dependencies for avatar commands.
type AvatarCommandConfig struct {
	Repository types.AvatarRepository
	Profiles   types.ProfileRepository
	Store      types.ObjectStore
	Processor  *avatar.Processor
	Gate       featuregate.FeatureGate
	Hooks      types.Hooks
	Clock      types.Clock
	IDGen      types.IDGenerator
	Logger     types.Logger
	Activity   types.ActivitySink
	ScopeGuard scope.Guard
}

// AvatarUploadInput carries the raw image bytes for one upload.
type AvatarUploadInput struct {
	UserID uuid.UUID
	Data   []byte
	Scope  types.ScopeFilter
	Actor  types.ActorRef
	Result *types.Avatar
}

// Type implements gocommand.Message.
func (AvatarUploadInput) Type() string {
	return "command.avatar.upload"
}

// Validate implements gocommand.Message.
func (input AvatarUploadInput) Validate() error {
	if input.UserID == uuid.Nil {
		return ErrUserIDRequired
	}
	if input.Actor.ID == uuid.Nil {
		return ErrActorRequired
	}
	if len(input.Data) == 0 {
		return ErrAvatarDataRequired
	}
	return nil
}

// AvatarUploadCommand validates, processes, and stores a new avatar. The
// uploaded avatar stays inactive; AvatarActivateCommand owns activation and
// the profile URL mirror.
type AvatarUploadCommand struct {
	repo      types.AvatarRepository
	profiles  types.ProfileRepository
	store     types.ObjectStore
	processor *avatar.Processor
	gate      featuregate.FeatureGate
	hooks     types.Hooks
	clock     types.Clock
	idGen     types.IDGenerator
	logger    types.Logger
	sink      types.ActivitySink
	guard     scope.Guard
}

// NewAvatarUploadCommand constructs the avatar upload handler.
func NewAvatarUploadCommand(cfg AvatarCommandConfig) *AvatarUploadCommand {
	processor := cfg.Processor
	if processor == nil {
		processor = avatar.NewProcessor(avatar.ProcessorConfig{})
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	return &AvatarUploadCommand{
		repo:      cfg.Repository,
		profiles:  cfg.Profiles,
		store:     cfg.Store,
		processor: processor,
		gate:      cfg.Gate,
		hooks:     safeHooks(cfg.Hooks),
		clock:     safeClock(cfg.Clock),
		idGen:     idGen,
		logger:    safeLogger(cfg.Logger),
		sink:      safeActivitySink(cfg.Activity),
		guard:     safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[AvatarUploadInput] = (*AvatarUploadCommand)(nil)

// Execute runs the upload pipeline. Validation and processing happen before
// any remote write; when a later upload fails every object stored so far is
// deleted so the blob store holds no orphans for the aborted avatar.
func (c *AvatarUploadCommand) Execute(ctx context.Context, input AvatarUploadInput) error {
	if c.repo == nil {
		return types.ErrMissingAvatarRepository
	}
	if c.store == nil {
		return types.ErrMissingObjectStore
	}
	if err := input.Validate(); err != nil {
		return err
	}

	scope, err := c.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionAvatarsWrite, input.UserID)
	if err != nil {
		return err
	}

	enabled, err := featureEnabled(ctx, c.gate, featureAvatarUpload, scope, input.UserID)
	if err != nil {
		return err
	}
	if !enabled {
		return ErrAvatarUploadDisabled
	}

	processed, err := c.processor.Process(input.Data)
	if err != nil {
		return err
	}

	avatarID := c.idGen.UUID()
	canonicalPath := avatarObjectPath(input.UserID, avatarID, "canonical")

	var uploaded []string
	cleanup := func() {
		for _, path := range uploaded {
			if err := c.store.Delete(ctx, path); err != nil {
				c.logger.Error("avatar upload cleanup failed", err, "path", path)
			}
		}
	}

	publicURL, err := c.store.Upload(ctx, canonicalPath, bytes.NewReader(processed.Canonical), int64(len(processed.Canonical)), processed.MimeType)
	if err != nil {
		return err
	}
	uploaded = append(uploaded, canonicalPath)

	variants := make(map[string]string, len(processed.Variants))
	for name, payload := range processed.Variants {
		path := avatarObjectPath(input.UserID, avatarID, name)
		if _, err := c.store.Upload(ctx, path, bytes.NewReader(payload), int64(len(payload)), processed.MimeType); err != nil {
			cleanup()
			return err
		}
		uploaded = append(uploaded, path)
		variants[name] = c.store.PublicURL(path)
	}

	record := types.Avatar{
		ID:          avatarID,
		UserID:      input.UserID,
		StoragePath: canonicalPath,
		PublicURL:   publicURL,
		SizeBytes:   int64(len(processed.Canonical)),
		MimeType:    processed.MimeType,
		Width:       processed.Width,
		Height:      processed.Height,
		Variants:    variants,
		ContentHash: processed.ContentHash,
		Scope:       scope,
		CreatedAt:   now(c.clock),
	}
	inserted, err := c.repo.InsertAvatar(ctx, record)
	if err != nil {
		cleanup()
		return err
	}

	if input.Result != nil {
		*input.Result = *inserted
	}

	logActivity(ctx, c.sink, types.ActivityRecord{
		UserID:     input.UserID,
		ActorID:    input.Actor.ID,
		Action:     activity.ActionAvatarUploaded,
		Status:     types.ActivityStatusSuccess,
		OrgID:      scope.OrgID,
		Data:       map[string]any{"avatar_id": inserted.ID.String(), "size_bytes": inserted.SizeBytes},
		OccurredAt: now(c.clock),
	})
	emitAvatarHook(ctx, c.hooks, types.AvatarEvent{
		UserID:     input.UserID,
		ActorID:    input.Actor.ID,
		Action:     activity.ActionAvatarUploaded,
		Avatar:     *inserted,
		OccurredAt: now(c.clock),
	})
	return nil
}

func avatarObjectPath(userID, avatarID uuid.UUID, name string) string {
	return fmt.Sprintf("avatars/%s/%s/%s.jpg", userID, avatarID, name)
}
