package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoleAtLeast(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(RoleResearcher))
	assert.True(t, RoleMember.AtLeast(RoleMember))
	assert.False(t, RoleMember.AtLeast(RoleResearcher))
	assert.True(t, Role(0).AtLeast(RoleVisitor), "missing role counts as visitor")
	assert.False(t, Role(0).AtLeast(RoleMember))
}

func TestRoleNames(t *testing.T) {
	assert.Equal(t, "Researcher", RoleResearcher.Name())
	assert.Equal(t, "Visitor", Role(0).Name())
	assert.Equal(t, "Unknown", Role(9).Name())

	r, ok := ParseRole("admin")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, r)
	_, ok = ParseRole("owner")
	assert.False(t, ok)
}

func TestGDriveCapabilities(t *testing.T) {
	var none *GDriveConfig
	assert.False(t, none.CanPublishModels())

	g := &GDriveConfig{ClientID: "cid", ContributionsURL: "https://drive.google.com/folders/a"}
	assert.True(t, g.CanUploadContributions())
	assert.False(t, g.CanPublishModels())
}

func TestUserPublicDropsSecrets(t *testing.T) {
	u := User{ID: 1, GDrive: &GDriveConfig{ClientID: "cid", ClientSecret: "s", RefreshToken: "r"}}
	pub := u.Public()

	assert.Empty(t, pub.GDrive.ClientSecret)
	assert.Empty(t, pub.GDrive.RefreshToken)
	assert.Equal(t, "s", u.GDrive.ClientSecret, "original untouched")
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := Session{Timestamp: now.Add(-5 * time.Minute)}

	assert.False(t, s.Expired(now, 5*time.Minute), "exactly at the limit is still alive")
	assert.True(t, s.Expired(now.Add(time.Second), 5*time.Minute))
}

func TestContributionStatus(t *testing.T) {
	assert.True(t, ValidContributionStatus("aggregated"))
	assert.False(t, ValidContributionStatus("done"))
	assert.True(t, Contribution{Status: ContributionApproved}.Aggregatable())
	assert.False(t, Contribution{Status: ContributionPending}.Aggregatable())
}
