package memory

// Cascade deletes. Each delete walks the ownership edges of the entity graph:
// owned children are removed recursively, optional non-owned references are
// nulled. Every helper is idempotent, so a descendant reachable along two
// paths (a risk owned by both a policy and a procedure) is removed once and
// the second visit is a no-op.

func (t *Tx) deleteService(id int64) {
	if _, ok := t.data.services[id]; !ok {
		return
	}
	for pid, p := range t.data.policies {
		if p.ServiceID == id {
			t.deletePolicy(pid)
		}
	}
	delete(t.data.services, id)
}

func (t *Tx) deletePolicy(id int64) {
	if _, ok := t.data.policies[id]; !ok {
		return
	}
	for pid, p := range t.data.procedures {
		if p.PolicyID == id {
			t.deleteProcedure(pid)
		}
	}
	for did, d := range t.data.documents {
		if d.PolicyID != nil && *d.PolicyID == id {
			delete(t.data.documents, did)
		}
	}
	for aid, a := range t.data.policyAcceptances {
		if a.PolicyID == id {
			delete(t.data.policyAcceptances, aid)
		}
	}
	for rid, r := range t.data.risks {
		if r.RelatedPolicyID != nil && *r.RelatedPolicyID == id {
			delete(t.data.risks, rid)
		}
	}
	// Schedule references are not owning edges.
	for _, sched := range t.data.schedules {
		if sched.RelatedPolicyID != nil && *sched.RelatedPolicyID == id {
			sched.RelatedPolicyID = nil
		}
	}
	delete(t.data.policies, id)
}

func (t *Tx) deleteProcedure(id int64) {
	if _, ok := t.data.procedures[id]; !ok {
		return
	}
	for cid, c := range t.data.checklistItems {
		if c.ProcedureID == id {
			delete(t.data.checklistItems, cid)
		}
	}
	for aid, a := range t.data.activityLogs {
		if a.ProcedureID == id {
			delete(t.data.activityLogs, aid)
		}
	}
	for did, d := range t.data.documents {
		if d.ProcedureID != nil && *d.ProcedureID == id {
			delete(t.data.documents, did)
		}
	}
	for aid, a := range t.data.procedureAcceptances {
		if a.ProcedureID == id {
			delete(t.data.procedureAcceptances, aid)
		}
	}
	for rid, r := range t.data.risks {
		if r.RelatedProcedureID != nil && *r.RelatedProcedureID == id {
			delete(t.data.risks, rid)
		}
	}
	for _, sched := range t.data.schedules {
		if sched.RelatedProcedureID != nil && *sched.RelatedProcedureID == id {
			sched.RelatedProcedureID = nil
		}
	}
	delete(t.data.procedures, id)
}

func (t *Tx) deleteUser(id int64) {
	u, ok := t.data.users[id]
	if !ok {
		return
	}
	for did, d := range t.data.documents {
		if d.UploadedBy != nil && *d.UploadedBy == id {
			delete(t.data.documents, did)
		}
	}
	for aid, a := range t.data.policyAcceptances {
		if a.UserID == id {
			delete(t.data.policyAcceptances, aid)
		}
	}
	for aid, a := range t.data.procedureAcceptances {
		if a.UserID == id {
			delete(t.data.procedureAcceptances, aid)
		}
	}
	for iid, inv := range t.data.invitations {
		if inv.InvitedBy != nil && *inv.InvitedBy == id {
			delete(t.data.invitationsByToken, inv.Token)
			delete(t.data.invitations, iid)
		}
	}
	for sid, sched := range t.data.schedules {
		if sched.AssignedTo != nil && *sched.AssignedTo == id {
			delete(t.data.schedules, sid)
		}
	}
	for rid, r := range t.data.reminders {
		if r.UserID == id {
			delete(t.data.reminders, rid)
		}
	}
	delete(t.data.usersByEmail, u.Email)
	delete(t.data.users, id)
}
