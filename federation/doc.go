// Package federation implements trust chain resolution for federated
// identity networks: it connects a subject entity to one or more trust
// anchors through chains of signed entity statements, combines the
// metadata policies imposed by every intermediate authority, and
// applies them to the subject's self-asserted metadata.
//
// The resolver package drives the process; entity, metadata and policy
// hold the data model and the policy algebra; discovery and the
// common/provider package fetch statements from the network.
package federation
