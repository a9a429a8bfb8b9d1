package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"balance_valuer/internal/app/port"
	"balance_valuer/internal/domain/entity"
	"balance_valuer/internal/pkg/cache"
)

// metadataResolverImpl implements port.MetadataResolver with a
// capacity-bounded cache. Token metadata is effectively immutable on-chain,
// so entries never expire; they only fall out under LRU pressure.
type metadataResolverImpl struct {
	chain       port.ChainClient
	cache       *cache.Cache[string, entity.TokenMetadata]
	logoBaseURL string
	logger      *zap.Logger
}

// NewMetadataResolver creates a metadata resolver owning the given cache.
func NewMetadataResolver(
	chain port.ChainClient,
	metadataCache *cache.Cache[string, entity.TokenMetadata],
	logoBaseURL string,
	logger *zap.Logger,
) port.MetadataResolver {
	return &metadataResolverImpl{
		chain:       chain,
		cache:       metadataCache,
		logoBaseURL: strings.TrimRight(logoBaseURL, "/"),
		logger:      logger.Named("MetadataResolver"),
	}
}

// Resolve implements port.MetadataResolver. A failed lookup is returned but
// never cached, so a transient RPC hiccup does not permanently blacklist a
// valid token.
func (s *metadataResolverImpl) Resolve(ctx context.Context, tokenAddress string) (entity.TokenMetadata, error) {
	key := strings.ToLower(tokenAddress)
	if md, ok := s.cache.Get(key); ok {
		return md, nil
	}

	md, err := s.chain.TokenMetadata(ctx, tokenAddress)
	if err != nil {
		s.logger.Warn("Cannot get token info",
			zap.String("tokenAddress", tokenAddress),
			zap.Error(err))
		return entity.TokenMetadata{}, fmt.Errorf("resolve token %s: %w", tokenAddress, err)
	}

	md.LogoURI = fmt.Sprintf("%s/%s.png", s.logoBaseURL, md.Address)
	s.cache.Add(key, md)
	return md, nil
}
