package command

import (
	"context"

	"github.com/goliatone/go-accounts/pkg/types"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
)

const (
	featureAvatarUpload = "accounts.avatar_upload"
	featureDataExport   = "accounts.data_export"
)

func featureEnabled(ctx context.Context, gate featuregate.FeatureGate, key string, scope types.ScopeFilter, userID uuid.UUID) (bool, error) {
	if gate == nil {
		return true, nil
	}
	chain := featureScopeChain(scope, userID)
	if chain == nil {
		return gate.Enabled(ctx, key)
	}
	return gate.Enabled(ctx, key, featuregate.WithScopeChain(chain))
}

func featureScopeChain(scope types.ScopeFilter, userID uuid.UUID) featuregate.ScopeChain {
	orgID := ""
	if scope.OrgID != uuid.Nil {
		orgID = scope.OrgID.String()
	}

	user := ""
	if userID != uuid.Nil {
		user = userID.String()
	}

	if orgID == "" && user == "" {
		return nil
	}
	chain := featuregate.ScopeChain{}
	if user != "" {
		chain = append(chain, featuregate.ScopeRef{Kind: featuregate.ScopeUser, ID: user, OrgID: orgID})
	}
	if orgID != "" {
		chain = append(chain, featuregate.ScopeRef{Kind: featuregate.ScopeOrg, ID: orgID, OrgID: orgID})
	}
	chain = append(chain, featuregate.ScopeRef{Kind: featuregate.ScopeSystem})
	return chain
}
