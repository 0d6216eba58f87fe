package models

type User struct {
	ID      string `json:"user_id"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Role    string `json:"role,omitempty"`
	Country string `json:"country,omitempty"` // code ISO, pour le profil téléphone du transporteur
}
