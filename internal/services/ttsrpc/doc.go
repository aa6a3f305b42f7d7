// Package ttsrpc talks to the external neural voice synthesizer over HTTP.
//
// It follows the same functional-option client shape used elsewhere in
// this codebase's service adapters: a Config value, a NewClient
// constructor accepting Options, and sentinel-wrapped errors distinguishing
// a rejected request from a transport failure from an empty response.
package ttsrpc
