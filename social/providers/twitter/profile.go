package twitter

import (
	"github.com/mikempala/social-rest/social"
)

type twitterUser struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profile_image_url"`
	Description     string `json:"description"`
	Location        string `json:"location"`
	URL             string `json:"url"`
	Verified        bool   `json:"verified"`
	ConfirmedEmail  string `json:"confirmed_email"`
}

type userResponse struct {
	Data twitterUser `json:"data"`
}

// Twitter only shares an address with the users.email scope
func mapProfile(user *twitterUser) *social.SocialProfile {
	if user == nil {
		return nil
	}

	profileURL := ""
	if user.Username != "" {
		profileURL = "https://twitter.com/" + user.Username
	}

	return &social.SocialProfile{
		ProviderUserID: user.ID,
		Provider:       Name,
		Email:          user.ConfirmedEmail,
		Name:           user.Name,
		Username:       user.Username,
		AvatarURL:      user.ProfileImageURL,
		ProfileURL:     profileURL,
		Raw: map[string]any{
			"id":                user.ID,
			"name":              user.Name,
			"username":          user.Username,
			"profile_image_url": user.ProfileImageURL,
			"description":       user.Description,
			"location":          user.Location,
			"url":               user.URL,
			"verified":          user.Verified,
		},
	}
}
