package metrics

// namespace prefixes every collector exported by the service.
const namespace = "talentmatch"
