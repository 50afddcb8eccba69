package service

// Тексты, которые видят пользователи. Формулировки сохранены как в боте на проде.
const (
	msgCheckDMs        = "🚀 Check your DMs for verification steps! 🛡️"
	msgGreeting        = "Hello! 👋 I'm Mr. DCC Bot! 🤖\nLet's get started with your verification process. Please check the instructions below carefully. 📝"
	msgDMFailed        = "%s, I could not send you a DM 🥲. Please make sure your DMs are open and try again."
	msgNoInput         = "no input provided! Exiting..."
	msgStartingOver    = "🔄 Starting over..."
	msgConfirmEnroll   = "You entered `%s`. Is this correct?"
	msgAlreadyPending  = "You have already registered with us. Please wait for the admin to assign you to a group. 🕒\n our ADMINs are working tirelessly we hope you would understand"
	msgAlreadyAssigned = "You are already assigned to a group and your role is set. If you need any help, please reach out to the admins. 👨‍💼👩‍💼"
	msgLinkedToOther   = "Oops! 🚨 It looks like this enrollment number is already linked to another Discord account. If this seems like a mistake, please contact our admin team. 🛠️"
	msgNotInRecords    = "It looks like you are not in our records!"
	msgAskRegister     = "Do you want to register with 🧑‍🏫 Learn With DCC?"
	msgLetsRegister    = "🧐 Let's get you registered! Please follow the next steps carefully."
	msgThanks          = "Thank you for registering! 🎉 Your details have been recorded. Please wait for the admin to assign you to a group. 🕒"
	msgBye             = "👋 BYE ... If you change your mind, feel free to reach out to us anytime."
	msgAuditNewUser    = "🆕 New user registered: `%s` with enrollment number `%s` and email `%s`."

	labelEnrollment = "enrollment number"
	labelEmail      = "email"
	labelName       = "full name 🧑‍🦰"
	labelPhone      = "10-digit phone number 📱"
	labelEmailNew   = "email 📧"
	labelIDList     = "ID list separated by commas"
	labelGroup      = "group"
	labelDeleteIDs  = "ID list, separated by commas"

	msgListIntro       = "the new users who are trying to join DCC are:"
	msgAssignIntro     = "Now we will proceed to assign the new users to the groups"
	msgDeassignIntro   = "Now we will proceed with de-assigning the users from the groups"
	msgNoIDs           = "No IDs provided. Exiting..."
	msgNoGroup         = "No group provided. Exiting..."
	msgNoEnrollment    = "No enrollment number provided. Exiting..."
	msgAssigned        = "User with ID `%d` has been assigned to group `%s`"
	msgAssignNotFound  = "User with ID `%v` not found in the database."
	msgAssignDuplicate = "User with ID `%d` was not assigned: enrollment `%s` is already in the registrants list."
	msgAssignFailed    = "Failed to assign user with ID `%d`. Please check the logs."
	msgAssignNoAccount = "User with ID `%d` has been moved to group `%s`, but has no Discord account linked. No role was granted."
	msgAssignNoRole    = "User with ID `%d` has been moved to group `%s`, but the role could not be granted."
	msgAssignSummary   = "Assignment to group `%s` finished: %d of %d users assigned."
	msgDeassignUnknown = "User with Enrollment `%s` not found in the database."
	msgDeassignNoLink  = "User with Enrollment `%s` does not have a Discord account linked."
	msgDeassignDBError = "there has been some error in database update please fix it ASAP!!!"
	msgDeassigned      = "User with Enrollment `%s` has been deassigned from group `%s`"
	msgDeassignPartial = "User with Enrollment `%s` was only partially deassigned from group `%s`. Please check the messages above."
	msgAuditDeassigned = "User has been removed from the group %s and the role %s has been removed"
	msgDeleted         = "User with Enrollment `%s` has been deleted from the new users list"
	msgDeleteNotFound  = "User with ID `%v` not found in the new users list. Make sure you de-assigned the user already. If not please de-assign the user first using `!deassign_group`."
	msgAuditDeleted    = "🗑️ Pending registration `%s` was deleted by an admin."

	msgVerified         = "Verification successful! ✅ Now you have access to exclusive channels in `#%s`. Enjoy your journey with us! 🌟"
	msgAuditAssigned    = "✅ Assigned `'%s'` role and access to `#%s` channel for user `@%s`"
	msgRoleRemoved      = "%s role has been removed from the user %s"
	msgRoleRemoveFailed = "Unable to remove role %s from %s"
	msgGroupRemoved     = "User %s has been removed from the group %s"
	msgGroupRemoveFail  = "Unable to remove user %s from the group %s"

	msgMemberListIntro = "The List of Members in %s:"
)
