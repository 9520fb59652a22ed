// Package fcm implements notify.Gateway with Firebase Cloud Messaging.
package fcm
