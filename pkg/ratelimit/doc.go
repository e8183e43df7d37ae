// Package ratelimit implements the per-client login throttle: a greedy
// fixed-capacity token bucket per remote IP, and the HTTP middleware that
// applies it to the login route.
//
// A bucket starts full. Each attempt consumes one token. Once a whole
// window has passed since the last refill the bucket is restored to full
// capacity in one step; there is no gradual trickle.
package ratelimit
