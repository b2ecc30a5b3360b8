package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	ProfileKeyPrefix   = "profile:%d"
	CommunityKeyPrefix = "community:%d"
)

const (
	ProfileTTL   = 5 * time.Minute
	CommunityTTL = 10 * time.Minute
)

func ProfileKey(userID uint) string {
	return fmt.Sprintf(ProfileKeyPrefix, userID)
}

func CommunityKey(communityID uint) string {
	return fmt.Sprintf(CommunityKeyPrefix, communityID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateProfile(ctx context.Context, userID uint) {
	Invalidate(ctx, ProfileKey(userID))
}

func InvalidateCommunity(ctx context.Context, communityID uint) {
	Invalidate(ctx, CommunityKey(communityID))
}
