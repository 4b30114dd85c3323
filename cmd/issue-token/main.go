// Command issue-token mints a bearer token for local testing of the API.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"ip-review-api/config"
	"ip-review-api/middleware"
	"ip-review-api/models"
)

func main() {
	userID := flag.String("user", "", "user id placed in the token")
	email := flag.String("email", "", "e-mail placed in the token")
	role := flag.String("role", string(models.RoleApplicant), "applicant|mentor|drd_reviewer|dean")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatal(err)
	}
	if *userID == "" {
		log.Fatal("-user is required")
	}
	r := models.Role(*role)
	if !r.Valid() {
		log.Fatalf("unknown role %q", *role)
	}

	token, err := middleware.SignToken(settings.JWTSecret, *userID, *email, r, *ttl)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}
