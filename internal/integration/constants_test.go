package integration_test

const (
	TestUserFullName = "John Doe"
	TestUserEmail    = "test@example.com"
	TestUserPassword = "Test123!@#"

	TestWebhookSecret = "whsec_integration"

	// seeded by the migrations
	TestMovieId      = 1
	TestMovieTitle   = "Pushpa 2: The Rule"
	TestMoviePrice   = 200
	SeededMovieCount = 4
	SeededFeatured   = 2
)
