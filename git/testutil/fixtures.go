package testutil

// Test user information used across all test helpers.
const (
	// TestAuthor is the default author name for test commits.
	TestAuthor = "Test User"

	// TestEmail is the default email for test commits.
	TestEmail = "test@example.com"
)

// Test repository identity.
const (
	// TestUsername is the owner of the test repository.
	TestUsername = "liferay"

	// TestRepositoryName is the name of the test repository.
	TestRepositoryName = "liferay-portal"

	// TestUpstreamBranch is the upstream branch of the test repository.
	TestUpstreamBranch = "master"
)

// Test remote names and URLs.
const (
	// TestRemoteName is a standard remote name.
	TestRemoteName = "origin"

	// TestRemoteNameUpstream is an upstream remote name.
	TestRemoteNameUpstream = "upstream"

	// TestMirrorURL is a sample SSH mirror URL.
	TestMirrorURL = "git@mirror-1:liferay/liferay-portal.git"
)

// Test commit messages.
const (
	// TestInitialCommit is a message for initial commits.
	TestInitialCommit = "Initial commit"

	// TestFeatureCommit is a message for feature commits.
	TestFeatureCommit = "Add new feature"
)

// TestCacheBranch is a cache branch name in the canonical format.
const TestCacheBranch = "cache-liferay-def456-jane-abc123"
