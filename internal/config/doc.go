// Package config handles loading and parsing the barberq configuration file.
//
// The Load function resolves ~/.config/barberq/config.toml unless an explicit
// path is given, expands tildes, and falls back to defaults when the file is
// missing. A missing config file is not an error; barberq works out of the box
// against a stub backend on localhost.
//
// Example config.toml:
//
//	api_bind = "127.0.0.1:8743"
//	role = "barber"
//	salon_id = "salon-main"
//	barber_id = "b-12"
//
//	[poll]
//	booking_seconds = 10
//	notifications_seconds = 30
//	queue_seconds = 10
//
// All fields are optional. Role defaults to "client"; poll cadences default to
// 10s for booking and queue refresh and 30s for notifications.
package config
