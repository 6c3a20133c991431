package models

// Team — неизменяемые справочные данные о сборной/клубе.
type Team struct {
	ID          int     `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	CountryCode string  `json:"country_code" db:"country_code"`
	FlagKey     *string `json:"-" db:"flag_key"`
	FlagURL     *string `json:"flag_url,omitempty" db:"-"`
}
