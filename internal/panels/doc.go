// Package panels binds job submission to task monitoring for each operator
// action: user search, timeline fetch, followers and following, scraper login,
// and credential management.
//
// Every panel runs at most one job at a time. A submission error is returned
// directly and no monitor session starts. A resolved job's loosely shaped
// result is normalized into the panel's view model before it is handed back.
package panels
