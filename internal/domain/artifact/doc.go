// Package artifact contains the domain types of the install pipeline.
//
// It defines the closed set of distribution channels, the resolved Descriptor
// handed from a resolver to the download pipeline, the install request/result
// pair and the error taxonomy shared by resolvers, the pipeline and the API.
package artifact
